package contract

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// MarketABI is the interface of the sustainability-rewards marketplace.
const MarketABI = `[
  {"type":"function","name":"restaurants","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[
     {"name":"isVerified","type":"bool"},
     {"name":"name","type":"string"},
     {"name":"supplySource","type":"uint8"},
     {"name":"supplyDetails","type":"string"},
     {"name":"registrationTimestamp","type":"uint256"}]},
  {"type":"function","name":"dishes","stateMutability":"view",
   "inputs":[{"name":"","type":"uint256"}],
   "outputs":[
     {"name":"name","type":"string"},
     {"name":"mainComponent","type":"string"},
     {"name":"carbonCredits","type":"uint256"},
     {"name":"price","type":"uint256"},
     {"name":"restaurant","type":"address"},
     {"name":"isActive","type":"bool"}]},
  {"type":"function","name":"getDishes","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"getDishDetails","stateMutability":"view",
   "inputs":[{"name":"dishId","type":"uint256"}],
   "outputs":[
     {"name":"name","type":"string"},
     {"name":"mainComponent","type":"string"},
     {"name":"carbonCredits","type":"uint256"},
     {"name":"price","type":"uint256"},
     {"name":"restaurant","type":"address"},
     {"name":"isActive","type":"bool"},
     {"name":"isVerified","type":"bool"}]},
  {"type":"function","name":"getRestaurantInfo","stateMutability":"view",
   "inputs":[
     {"name":"restaurant","type":"address"},
     {"name":"offset","type":"uint256"},
     {"name":"limit","type":"uint256"},
     {"name":"activeOnly","type":"bool"}],
   "outputs":[
     {"name":"dishIds","type":"uint256[]"},
     {"name":"dishDetails","type":"tuple[]","components":[
       {"name":"name","type":"string"},
       {"name":"mainComponent","type":"string"},
       {"name":"carbonCredits","type":"uint256"},
       {"name":"price","type":"uint256"},
       {"name":"restaurant","type":"address"},
       {"name":"isActive","type":"bool"}]}]},
  {"type":"function","name":"getMyProfile","stateMutability":"view",
   "inputs":[],
   "outputs":[
     {"name":"carbonCredits","type":"uint256"},
     {"name":"tokenBalance","type":"uint256"},
     {"name":"transactionCount","type":"uint256"},
     {"name":"tier","type":"uint8"},
     {"name":"rewardMultiplier","type":"uint256"}]},
  {"type":"function","name":"userTransactionCount","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getMyTransactions","stateMutability":"view",
   "inputs":[
     {"name":"offset","type":"uint256"},
     {"name":"count","type":"uint256"}],
   "outputs":[
     {"name":"","type":"tuple[]","components":[
       {"name":"dishId","type":"uint256"},
       {"name":"timestamp","type":"uint256"},
       {"name":"carbonCredits","type":"uint256"},
       {"name":"price","type":"uint256"},
       {"name":"status","type":"uint8"}]}]},
  {"type":"function","name":"dishCounter","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ENTRY_FEE","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"purchaseDish","stateMutability":"payable",
   "inputs":[{"name":"dishId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"purchaseDishWithEth","stateMutability":"payable",
   "inputs":[{"name":"dishId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"restaurantRegister","stateMutability":"payable",
   "inputs":[
     {"name":"name","type":"string"},
     {"name":"supplySource","type":"uint8"},
     {"name":"supplyDetails","type":"string"},
     {"name":"dishName","type":"string"},
     {"name":"mainComponent","type":"string"},
     {"name":"carbonCredits","type":"uint256"},
     {"name":"price","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"addDish","stateMutability":"nonpayable",
   "inputs":[
     {"name":"name","type":"string"},
     {"name":"mainComponent","type":"string"},
     {"name":"carbonCredits","type":"uint256"},
     {"name":"price","type":"uint256"},
     {"name":"isActive","type":"bool"}],
   "outputs":[]},
  {"type":"function","name":"manageDish","stateMutability":"nonpayable",
   "inputs":[
     {"name":"dishId","type":"uint256"},
     {"name":"name","type":"string"},
     {"name":"price","type":"uint256"},
     {"name":"isActive","type":"bool"},
     {"name":"deactivateOnly","type":"bool"}],
   "outputs":[]}
]`

var (
	parseOnce sync.Once
	parsed    *abi.ABI
	parseErr  error
)

// ParsedABI returns MarketABI parsed once per process.
func ParsedABI() (*abi.ABI, error) {
	parseOnce.Do(func() {
		a, err := abi.JSON(strings.NewReader(MarketABI))
		if err != nil {
			parseErr = err
			return
		}
		parsed = &a
	})
	return parsed, parseErr
}
