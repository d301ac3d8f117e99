package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/config"
	"github.com/ecodine/ecodine/marketplace"
	"github.com/ecodine/ecodine/session"
)

var orderAfterListing bool

var dishesCmd = &cobra.Command{
	Use:   "dishes",
	Short: "List active dishes, optionally fuzzy searched and ordered",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			dishes, err := svc.Dishes(ctx)
			if err != nil {
				return err
			}
			dishes = marketplace.Search(dishes, config.Search)
			showDishes(dishes)
			if !orderAfterListing || len(dishes) == 0 {
				return nil
			}
			options := make([]string, 0, len(dishes))
			for _, d := range dishes {
				options = append(options, fmt.Sprintf("#%d %s (%s)", d.ID, d.Name, d.PriceDisplay))
			}
			i := appUI.Choose("Which dish do you want to order?", options)
			return buy(ctx, svc, dishes[i].ID)
		})
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy <dish-id>",
	Short: "Buy a dish at its listed price",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDishID(args[0])
		if err != nil {
			return err
		}
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			return buy(ctx, svc, id)
		})
	},
}

func buy(ctx context.Context, svc *marketplace.Service, id uint64) error {
	purchase := svc.Purchase
	if config.WithEth {
		purchase = svc.PurchaseWithEth
	}
	r, err := purchase(ctx, id)
	if err != nil {
		return err
	}
	showReceipt(r)
	return nil
}

var restaurantsCmd = &cobra.Command{
	Use:   "restaurants",
	Short: "List verified restaurants with a preview of their menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			restaurants, err := svc.Restaurants(ctx)
			if err != nil {
				return err
			}
			showRestaurants(restaurants)
			return nil
		})
	},
}

var restaurantCmd = &cobra.Command{
	Use:   "restaurant <address>",
	Short: "Show a restaurant and its active dishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsValidAddress(args[0]) {
			return fmt.Errorf("%q is not a valid address", args[0])
		}
		addr := common.HexToAddress(args[0])
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			r, err := svc.Restaurant(ctx, addr)
			if err != nil {
				return err
			}
			showRestaurant(r)
			return nil
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your carbon credits, reward tier and multiplier",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			p, err := svc.Profile(ctx)
			if err != nil {
				return err
			}
			showProfile(p)
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your purchases, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			entries, err := svc.History(ctx)
			if err != nil {
				return err
			}
			showHistory(entries)
			return nil
		})
	},
}

func init() {
	dishesCmd.Flags().StringVarP(&config.Search, "search", "s", "", "fuzzy match on dish name and main component.")
	dishesCmd.Flags().BoolVarP(&orderAfterListing, "order", "o", false, "pick one of the listed dishes and buy it.")
	AddPaymentFlags(dishesCmd)
	AddPaymentFlags(buyCmd)
	rootCmd.AddCommand(dishesCmd, buyCmd, restaurantsCmd, restaurantCmd, profileCmd, historyCmd)
}
