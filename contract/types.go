package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Field order of the structs below follows the ABI outputs, abi.ConvertType
// matches tuple components by field name.

type Restaurant struct {
	IsVerified            bool
	Name                  string
	SupplySource          uint8
	SupplyDetails         string
	RegistrationTimestamp *big.Int
}

type Dish struct {
	Name          string
	MainComponent string
	CarbonCredits *big.Int
	Price         *big.Int
	Restaurant    common.Address
	IsActive      bool
}

// DishDetails is a dish plus the verification flag of its restaurant.
type DishDetails struct {
	Dish
	IsVerified bool
}

type RestaurantDishes struct {
	DishIds     []*big.Int
	DishDetails []Dish
}

type Profile struct {
	CarbonCredits    *big.Int
	TokenBalance     *big.Int
	TransactionCount *big.Int
	Tier             uint8
	RewardMultiplier *big.Int
}

type Transaction struct {
	DishId        *big.Int
	Timestamp     *big.Int
	CarbonCredits *big.Int
	Price         *big.Int
	Status        uint8
}

type Registration struct {
	Name          string
	SupplySource  uint8
	SupplyDetails string
	DishName      string
	MainComponent string
	CarbonCredits *big.Int
	Price         *big.Int
}

type NewDish struct {
	Name          string
	MainComponent string
	CarbonCredits *big.Int
	Price         *big.Int
	IsActive      bool
}
