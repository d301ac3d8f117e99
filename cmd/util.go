package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/marketplace"
)

const timeLayout = "2006-01-02 15:04"

func userMessage(err error) string {
	switch {
	case errors.Is(err, marketplace.ErrInvalidForm),
		errors.Is(err, marketplace.ErrDishUnavailable),
		errors.Is(err, marketplace.ErrRestaurantNotFound):
		return strings.ToUpper(err.Error()[:1]) + err.Error()[1:] + "."
	}
	return common.UserMessage(err)
}

func parseDishID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%q is not a dish id", s)
	}
	return id, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func showDishes(dishes []marketplace.Dish) {
	if len(dishes) == 0 {
		appUI.Info("No dishes.")
		return
	}
	rows := make([][]string, 0, len(dishes))
	for _, d := range dishes {
		rows = append(rows, []string{
			fmt.Sprintf("#%d", d.ID),
			d.Name,
			d.MainComponent,
			strconv.FormatUint(d.CarbonCredits, 10),
			d.PriceDisplay,
			common.FormatAddress(d.Restaurant.Hex()),
			yesNo(d.IsActive),
			yesNo(d.IsVerified),
		})
	}
	appUI.Table([]string{"ID", "DISH", "MAIN COMPONENT", "CREDITS", "PRICE", "RESTAURANT", "ACTIVE", "VERIFIED"}, rows)
}

func showRestaurant(r marketplace.Restaurant) {
	appUI.Section(r.Name)
	appUI.KeyValue([][2]string{
		{"Address", r.Address.Hex()},
		{"Supply source", r.SupplySourceLabel()},
		{"Supply details", r.SupplyDetails},
		{"Registered", r.RegisteredAt.Format(timeLayout)},
		{"Verified", yesNo(r.IsVerified)},
	})
	showDishes(r.Dishes)
}

func showRestaurants(restaurants []marketplace.Restaurant) {
	if len(restaurants) == 0 {
		appUI.Info("No restaurants.")
		return
	}
	groups := make([][][]string, 0, len(restaurants))
	for _, r := range restaurants {
		group := [][]string{}
		for i, d := range r.Dishes {
			name, source := "", ""
			if i == 0 {
				name, source = r.Name, r.SupplySourceLabel()
			}
			group = append(group, []string{name, source, fmt.Sprintf("#%d %s", d.ID, d.Name), d.PriceDisplay})
		}
		if len(group) == 0 {
			group = append(group, []string{r.Name, r.SupplySourceLabel(), "", ""})
		}
		groups = append(groups, group)
	}
	appUI.TableWithGroups([]string{"RESTAURANT", "SUPPLY SOURCE", "DISH", "PRICE"}, groups)
}

func showProfile(p marketplace.Profile) {
	appUI.KeyValue([][2]string{
		{"Carbon credits", common.FormatCount(p.CarbonCredits)},
		{"Reward tokens", p.TokenBalance},
		{"Purchases", common.FormatCount(p.TransactionCount)},
		{"Tier", p.TierLabel()},
		{"Reward multiplier", fmt.Sprintf("%.2fx", p.RewardMultiplier)},
	})
}

func showHistory(entries []marketplace.HistoryEntry) {
	if len(entries) == 0 {
		appUI.Info("No purchases yet.")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		restaurant := "Unknown"
		if !common.IsZeroAddress(e.Restaurant) {
			restaurant = common.FormatAddress(e.Restaurant.Hex())
		}
		rows = append(rows, []string{
			e.Timestamp.Format(timeLayout),
			fmt.Sprintf("#%d %s", e.DishID, e.DishName),
			restaurant,
			strconv.FormatUint(e.CarbonCredits, 10),
			e.Price,
			e.StatusLabel(),
		})
	}
	appUI.Table([]string{"TIME", "DISH", "RESTAURANT", "CREDITS", "PRICE", "STATUS"}, rows)
}

func showReceipt(r marketplace.Receipt) {
	appUI.Success("%s confirmed in block %d", r.Method, r.BlockNumber)
	appUI.Info("tx: %s", r.TxHash.Hex())
}
