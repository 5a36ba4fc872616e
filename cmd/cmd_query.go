package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/postcode-matcher/internal/normalizer"
	"github.com/postcode-matcher/internal/phonetic"
)

var queryOptions struct {
	state    string
	limit    int
	lat      float64
	lon      float64
	place    string
	radiusKm float64
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve a free-text locality to ranked postcode candidates",
	Long: `
$ postcode-matcher resolve "mt isa" --state QLD
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		out, err := app.Location.Resolve(cmd.Context(), strings.Join(args, " "), queryOptions.state, queryOptions.limit)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List localities within a radius of a point or a named place",
	Long: `
$ postcode-matcher nearby --lat -32.93 --lon 151.75 --radius 5
$ postcode-matcher nearby --place Newcastle --state NSW
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		hasPoint := cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon")
		if !hasPoint && queryOptions.place == "" {
			return errors.New("either --lat and --lon or --place is required")
		}
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if queryOptions.place != "" {
			out, err := app.Location.NearPlace(cmd.Context(), queryOptions.place, queryOptions.radiusKm, queryOptions.state, queryOptions.limit)
			if err != nil {
				return err
			}
			return printJSON(out)
		}
		out, err := app.Location.Nearby(cmd.Context(), queryOptions.lat, queryOptions.lon, queryOptions.radiusKm, queryOptions.state, queryOptions.limit)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dataset statistics, optionally for one state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if queryOptions.state != "" {
			out, err := app.Location.StateStatistics(cmd.Context(), queryOptions.state)
			if err != nil {
				return err
			}
			return printJSON(out)
		}
		out, err := app.Location.DatasetStats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize locality names read from stdin, one per line",
	Long: `
Reads one name per line and prints the name, its normalized form and its
phonetic codes (comma separated) separated by tabs. No dataset is loaded.

$ echo "Mt. Isa" | postcode-matcher normalize
`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if isatty.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter locality names, one per line…")
		}
		norm := normalizer.Default()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			n := norm.Normalize(line)
			fmt.Printf("%s\t%s\t%s\n", line, n, strings.Join(phonetic.CompoundVariants(n), ","))
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd, nearbyCmd, statsCmd, normalizeCmd)

	for _, c := range []*cobra.Command{resolveCmd, nearbyCmd, statsCmd} {
		c.Flags().StringVar(&queryOptions.state, "state", "", "restrict to one state (NSW, VIC, QLD, SA, WA, TAS, NT, ACT)")
	}
	for _, c := range []*cobra.Command{resolveCmd, nearbyCmd} {
		c.Flags().IntVar(&queryOptions.limit, "limit", 10, "maximum results")
	}
	nearbyCmd.Flags().Float64Var(&queryOptions.lat, "lat", 0, "latitude of the centre")
	nearbyCmd.Flags().Float64Var(&queryOptions.lon, "lon", 0, "longitude of the centre")
	nearbyCmd.Flags().StringVar(&queryOptions.place, "place", "", "locality or postcode to use as the centre")
	nearbyCmd.Flags().Float64Var(&queryOptions.radiusKm, "radius", 0, "radius in km (default: geo.default_radius_km)")
}
