package marketplace

var (
	supplySources = []string{"Local Producer", "Imported Producer", "Green Producer", "Other"}
	tiers         = []string{"Bronze", "Silver", "Gold", "Platinum"}
	statuses      = []string{"Created", "Rewarded", "Reward Failed"}
)

const unknownLabel = "Unknown"

func label(labels []string, i uint8) string {
	if int(i) < len(labels) {
		return labels[i]
	}
	return unknownLabel
}

func SupplySourceLabel(source uint8) string {
	return label(supplySources, source)
}

func SupplySources() []string {
	return append([]string(nil), supplySources...)
}

func TierLabel(tier uint8) string {
	return label(tiers, tier)
}

func StatusLabel(status uint8) string {
	return label(statuses, status)
}
