package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/michaelquigley/alsaroute"
)

// openMixer resolves a card by number or name and opens its mixer
func openMixer(identifier string) (*alsaroute.Mixer, alsaroute.Card, error) {
	card, err := alsaroute.FindCard(identifier)
	if err != nil {
		return nil, card, err
	}
	mixer, err := alsaroute.Open(card.Number)
	if err != nil {
		return nil, card, err
	}
	logger.Debugw("Opened mixer", "card", card.Number, "id", card.ID, "controls", mixer.Count())
	return mixer, card, nil
}

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List all sound cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, err := alsaroute.ListCards()
		if err != nil {
			return err
		}

		fmt.Println("available sound cards:")
		for _, card := range cards {
			fmt.Printf("  %d: %s [%s] %s\n", card.Number, card.ShortName, card.ID, card.LongName)
		}

		return nil
	},
}

var controlsCmd = &cobra.Command{
	Use:   "controls <card>",
	Short: "List all controls on a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mixer, card, err := openMixer(args[0])
		if err != nil {
			return err
		}
		defer mixer.Close()

		values, _ := cmd.Flags().GetBool("values")

		fmt.Printf("controls for %s:\n\n", card)
		for _, ctl := range mixer.Controls() {
			if values {
				fmt.Println(ctl.DetailedString())
			} else {
				fmt.Println(ctl.String())
			}
		}

		fmt.Printf("\ntotal: %d controls\n", mixer.Count())
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <card> <control-name>",
	Short: "Get the value of a control",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mixer, _, err := openMixer(args[0])
		if err != nil {
			return err
		}
		defer mixer.Close()

		ctl, err := mixer.Control(args[1], 0)
		if err != nil {
			return err
		}

		value, err := ctl.ValueString()
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", ctl.Name(), value)

		if percent, err := ctl.Get(); err == nil {
			fmt.Printf("  level: %d%%\n", percent)
		}
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <card> <control-name> <value>",
	Short: "Set a control from its string form (true/false, numbers or an item name)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mixer, _, err := openMixer(args[0])
		if err != nil {
			return err
		}
		defer mixer.Close()

		ctl, err := mixer.Control(args[1], 0)
		if err != nil {
			return err
		}

		if err := ctl.SetByString(args[2]); err != nil {
			return err
		}

		fmt.Printf("set '%s' to '%s'\n", ctl.Name(), args[2])
		return nil
	},
}

var levelCmd = &cobra.Command{
	Use:   "level <card> <control-name> <percent>",
	Short: "Set every channel of a control to a percentage of its range",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			return errors.Errorf("invalid percentage: %s", args[2])
		}

		mixer, _, err := openMixer(args[0])
		if err != nil {
			return err
		}
		defer mixer.Close()

		ctl, err := mixer.Control(args[1], 0)
		if err != nil {
			return err
		}

		if err := ctl.Set(uint(percent)); err != nil {
			return err
		}

		fmt.Printf("set '%s' to %d%%\n", ctl.Name(), percent)
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <card> <control-name> <item>",
	Short: "Select an item of an enumerated control",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mixer, _, err := openMixer(args[0])
		if err != nil {
			return err
		}
		defer mixer.Close()

		ctl, err := mixer.Control(args[1], 0)
		if err != nil {
			return err
		}

		if err := ctl.Select(args[2]); err != nil {
			return err
		}

		fmt.Printf("selected '%s' on '%s'\n", args[2], ctl.Name())
		return nil
	},
}

var setIntCmd = &cobra.Command{
	Use:   "setint <card> <control-name> <left> [right]",
	Short: "Set the raw left and right values of a control",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		left, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return errors.Errorf("invalid value: %s", args[2])
		}
		right := left
		if len(args) == 4 {
			if right, err = strconv.ParseInt(args[3], 10, 64); err != nil {
				return errors.Errorf("invalid value: %s", args[3])
			}
		}

		mixer, _, err := openMixer(args[0])
		if err != nil {
			return err
		}
		defer mixer.Close()

		ctl, err := mixer.Control(args[1], 0)
		if err != nil {
			return err
		}

		if err := ctl.SetIntDouble(left, right); err != nil {
			return err
		}

		fmt.Printf("set '%s' to %d/%d\n", ctl.Name(), left, right)
		return nil
	},
}

var dbRangeCmd = &cobra.Command{
	Use:   "dbrange <card> <control-name>",
	Short: "Show the dB range of a volume control",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mixer, _, err := openMixer(args[0])
		if err != nil {
			return err
		}
		defer mixer.Close()

		ctl, err := mixer.Control(args[1], 0)
		if err != nil {
			return err
		}

		min, max, err := ctl.MinMax()
		if err != nil {
			return err
		}
		db, err := ctl.DBRange(min, max)
		if err != nil {
			return err
		}

		fmt.Printf("%s: raw %d..%d, %.2f dB..%.2f dB, step %.2f dB\n", ctl.Name(), min, max, db.Min, db.Max, db.Step)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <card>",
	Short: "Monitor control changes in real-time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mixer, card, err := openMixer(args[0])
		if err != nil {
			return err
		}
		defer mixer.Close()

		fmt.Printf("monitoring controls for %s\n", card)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = mixer.Watch(ctx, func(ev alsaroute.Event) error {
			if ev.Mask == alsaroute.EventMaskRemove {
				fmt.Printf("removed: %s\n", ev.Name)
				return nil
			}
			ctl, err := mixer.ControlByNumID(ev.NumID)
			if err != nil {
				logger.Debugw("Event for unknown control", "numid", ev.NumID, "name", ev.Name)
				return nil
			}
			value, err := ctl.ValueString()
			if err != nil {
				logger.Warnw("Failed to read control", "control", ctl.Name(), "error", err)
				return nil
			}
			fmt.Printf("%s = %s\n", ctl.Name(), value)
			return nil
		})
		if err != nil {
			return err
		}

		fmt.Println("\nstopping monitor...")
		return nil
	},
}
