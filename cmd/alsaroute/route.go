package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gen2brain/alsa"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/michaelquigley/alsaroute/route"
)

func newManager() (*route.Manager, error) {
	m := route.New(
		route.WithLogger(logger),
		route.WithUSB(cfg.USBAudio),
		route.WithCardIDPath(cfg.CardIDPath),
	)
	if err := m.Init(); err != nil {
		return nil, err
	}
	return m, nil
}

// openRoute opens r on the configured card, or on the route's own card when
// none was given
func openRoute(cmd *cobra.Command, m *route.Manager, r route.Route, flags alsa.PcmFlag) error {
	if r.Direction() == route.DirectionNone {
		return errors.Errorf("%s is an off route", r)
	}
	if cmd.Flags().Changed("card") || cfg.Card != 0 {
		_, err := m.PcmCardOpen(cfg.Card, r, flags)
		return err
	}
	_, err := m.PcmOpen(r, flags)
	return err
}

// release closes the streams and mixers held by m without running the off
// routes, leaving the route's mixer settings in place
func release(m *route.Manager) error {
	var err error
	for slot := route.Device0Playback; slot <= route.Device2Capture; slot++ {
		if pcm := m.PCM(slot); pcm != nil {
			err = multierr.Append(err, pcm.Close())
		}
	}
	for _, dir := range []route.Direction{route.DirectionPlayback, route.DirectionCapture} {
		if mixer := m.Mixer(dir); mixer != nil {
			err = multierr.Append(err, mixer.Close())
		}
	}
	return err
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes of the route table selected for this card",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		table := m.Table()

		fmt.Printf("route table '%s' (card ids %v):\n\n", table.Name, table.CardIDs)
		for _, r := range route.Routes() {
			rc, err := table.Config(r)
			if err != nil {
				fmt.Printf("  %2d %-28s missing\n", int(r), r.Key())
				continue
			}
			fmt.Printf("  %2d %-28s %-9s card %d %-13s %d controls\n",
				int(r), r.Key(), r.Direction(), rc.Card, rc.Devices, len(rc.Controls))
			if cfg.Verbose {
				for _, ctl := range rc.Controls {
					if ctl.Str != "" {
						fmt.Printf("       %s = '%s'\n", ctl.Name, ctl.Str)
					} else {
						fmt.Printf("       %s = %v\n", ctl.Name, ctl.Ints)
					}
				}
			}
		}
		return nil
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <route>",
	Short: "Open a route's PCM streams and apply its mixer settings",
	Long: `Open a route's PCM streams and apply its mixer settings.

The route is given by key (speaker_normal), name (SpeakerNormal) or number.
With --hold the streams stay open until interrupted, then the playback and
capture off routes run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := route.ParseRoute(args[0])
		if err != nil {
			return err
		}

		var flags alsa.PcmFlag = alsa.PCM_OUT
		if nonblock, _ := cmd.Flags().GetBool("nonblock"); nonblock {
			flags |= alsa.PCM_NONBLOCK
		}

		m, err := newManager()
		if err != nil {
			return err
		}
		if err := openRoute(cmd, m, r, flags); err != nil {
			return err
		}

		hold, _ := cmd.Flags().GetBool("hold")
		if !hold {
			fmt.Printf("applied route '%s' from table '%s'\n", r, m.Table().Name)
			return release(m)
		}

		fmt.Printf("holding route '%s' from table '%s'\n", r, m.Table().Name)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		fmt.Println("\nclosing route...")
		return m.Uninit()
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume <control-name> <volume>",
	Short: "Set a playback volume (0 to 1) along the voice loudness curve",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		volume, err := strconv.ParseFloat(args[1], 64)
		if err != nil || volume < 0 || volume > 1 {
			return errors.Errorf("invalid volume: %s (use 0 to 1)", args[1])
		}

		name, _ := cmd.Flags().GetString("route")
		r, err := route.ParseRoute(name)
		if err != nil {
			return err
		}
		if r.Direction() != route.DirectionPlayback {
			return errors.Errorf("%s is not a playback route", r)
		}

		m, err := newManager()
		if err != nil {
			return err
		}
		if err := openRoute(cmd, m, r, alsa.PCM_OUT); err != nil {
			return err
		}
		defer release(m)

		if err := m.SetVoiceVolume(args[0], volume); err != nil {
			return err
		}

		fmt.Printf("set '%s' to volume %.2f\n", args[0], volume)
		return nil
	},
}

var inputSourceCmd = &cobra.Command{
	Use:   "input-source <source>",
	Short: "Select the capture input source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("route")
		r, err := route.ParseRoute(name)
		if err != nil {
			return err
		}
		if r.Direction() != route.DirectionCapture {
			return errors.Errorf("%s is not a capture route", r)
		}

		m, err := newManager()
		if err != nil {
			return err
		}
		if err := openRoute(cmd, m, r, alsa.PCM_IN); err != nil {
			return err
		}
		defer release(m)

		if err := m.SetInputSource(args[0]); err != nil {
			return err
		}

		fmt.Printf("selected input source '%s'\n", args[0])
		return nil
	},
}
