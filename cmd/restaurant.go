package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/config"
	"github.com/ecodine/ecodine/marketplace"
	"github.com/ecodine/ecodine/session"
)

func promptText(label string, required bool) string {
	appUI.Info(label)
	return strings.TrimSpace(appUI.Ask(func(s string) error {
		if required && strings.TrimSpace(s) == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}))
}

func promptCredits(label string) uint64 {
	appUI.Info(label)
	input := appUI.Ask(func(s string) error {
		if _, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err != nil {
			return fmt.Errorf("please enter a whole number")
		}
		return nil
	})
	n, _ := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	return n
}

func promptPrice(label string) string {
	appUI.Info(label)
	input := strings.TrimSpace(appUI.Ask(func(s string) error {
		v, err := common.ParseBaseUnits(s)
		if err != nil {
			return err
		}
		if v.Sign() <= 0 {
			return fmt.Errorf("price must be positive")
		}
		return nil
	}))
	appUI.Interpret(fmt.Sprintf("%s wei", common.ToBaseUnits(input)))
	return input
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the connected account as a restaurant with its first dish",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			if s.State().Role.IsRestaurant {
				appUI.Warn("This account is already a registered restaurant.")
				return nil
			}
			f := marketplace.RegistrationForm{}
			f.Name = promptText("Restaurant name", true)
			f.SupplySource = uint8(appUI.Choose("Where do your ingredients come from?", marketplace.SupplySources()))
			f.SupplyDetails = promptText("Supply details (optional)", false)
			f.DishName = promptText("First dish name", true)
			f.MainComponent = promptText("Main component", true)
			f.CarbonCredits = promptCredits("Carbon credits earned per purchase")
			f.Price = promptPrice("Price in the native currency, e.g. 0.01")
			if !appUI.Confirm("Register and pay the entry fee?", true) {
				appUI.Warn("Registration cancelled.")
				return nil
			}
			r, err := svc.Register(ctx, f)
			if err != nil {
				return err
			}
			showReceipt(r)
			s.RefreshRole(ctx)
			if s.State().Role.IsRestaurant {
				appUI.Success("%s is now a registered restaurant.", f.Name)
			}
			return nil
		})
	},
}

var myRestaurantCmd = &cobra.Command{
	Use:   "my-restaurant",
	Short: "Show your restaurant including inactive dishes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			if !s.State().Role.IsRestaurant {
				appUI.Warn("This account is not a registered restaurant. Run `ecodine register` first.")
				return nil
			}
			r, err := svc.MyRestaurant(ctx)
			if err != nil {
				return err
			}
			showRestaurant(r)
			return nil
		})
	},
}

var dishCmd = &cobra.Command{
	Use:   "dish",
	Short: "Manage the dishes of your restaurant",
}

var dishAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a dish to your menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			f := marketplace.DishForm{
				Name:          config.DishName,
				MainComponent: config.Component,
				CarbonCredits: config.Credits,
				Price:         config.DishPrice,
				IsActive:      !config.Inactive,
			}
			if f.Name == "" {
				f.Name = promptText("Dish name", true)
			}
			if f.MainComponent == "" {
				f.MainComponent = promptText("Main component", true)
			}
			if !cmd.Flags().Changed("credits") {
				f.CarbonCredits = promptCredits("Carbon credits earned per purchase")
			}
			if f.Price == "" {
				f.Price = promptPrice("Price in the native currency, e.g. 0.01")
			}
			r, err := svc.AddDish(ctx, f)
			if err != nil {
				return err
			}
			showReceipt(r)
			return nil
		})
	},
}

var dishUpdateCmd = &cobra.Command{
	Use:   "update <dish-id>",
	Short: "Rename, reprice or reactivate one of your dishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDishID(args[0])
		if err != nil {
			return err
		}
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			name, price := config.DishName, config.DishPrice
			if name == "" {
				name = promptText("New dish name", true)
			}
			if price == "" {
				price = promptPrice("New price in the native currency")
			}
			r, err := svc.UpdateDish(ctx, id, name, price, !config.Inactive)
			if err != nil {
				return err
			}
			showReceipt(r)
			return nil
		})
	},
}

var dishDeactivateCmd = &cobra.Command{
	Use:   "deactivate <dish-id>",
	Short: "Take one of your dishes off the menu",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDishID(args[0])
		if err != nil {
			return err
		}
		return withMarket(cmd, func(ctx context.Context, s *session.Session, svc *marketplace.Service) error {
			r, err := svc.DeactivateDish(ctx, id)
			if err != nil {
				return err
			}
			showReceipt(r)
			return nil
		})
	},
}

func init() {
	AddDishFlags(dishAddCmd)
	dishAddCmd.Flags().StringVarP(&config.Component, "component", "m", "", "main component of the dish.")
	dishAddCmd.Flags().Uint64Var(&config.Credits, "credits", 0, "carbon credits earned per purchase.")
	AddDishFlags(dishUpdateCmd)

	dishCmd.AddCommand(dishAddCmd, dishUpdateCmd, dishDeactivateCmd)
	rootCmd.AddCommand(registerCmd, myRestaurantCmd, dishCmd)
}
