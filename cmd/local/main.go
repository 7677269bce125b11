// Command local queries the line from a terminal, without Telegram.
// Useful for checking what the bot would show.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/granametro/metrobot/internal/models"
	"github.com/granametro/metrobot/pkg/metro"
)

func main() {
	var (
		baseURL   = flag.String("api-url", "", "MovGR API base URL (default: public deployment)")
		listStops = flag.Bool("stops", false, "List the stops on the line")
		stopID    = flag.String("stop", "", "Show next arrivals for a stop ID")
	)
	flag.Parse()

	config := metro.DefaultConfig()
	if *baseURL != "" {
		config.BaseURL = *baseURL
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client, err := metro.NewLocal(config, logger)
	if err != nil {
		slog.Error("Failed to create metro client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *listStops {
		fmt.Println("Stops on the line:")
		for _, stop := range client.Stops() {
			fmt.Printf("- %s (%s)\n", stop.Name, stop.ID)
		}
		return
	}

	if *stopID != "" {
		stop, err := client.GetStop(*stopID)
		if err != nil {
			slog.Error("Unknown stop", "id", *stopID, "error", err)
			os.Exit(1)
		}

		arrivals, err := client.Arrivals(ctx, *stopID)
		if err != nil {
			slog.Error("Failed to get arrivals", "stop", *stopID, "error", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s (%s)\n", stop.Name, stop.ID)
		if len(arrivals) == 0 {
			fmt.Println("  No upcoming trains")
			return
		}
		for _, a := range arrivals {
			fmt.Printf("  %2d min -> %s\n", a.Minutes, a.Direction)
		}
		return
	}

	// Default mode: the whole-line board as text
	line, err := client.AllArrivals(ctx)
	if err != nil {
		slog.Error("Failed to get line arrivals", "error", err)
		os.Exit(1)
	}

	byStop := make(map[string][]models.Arrival, len(line))
	for _, sa := range line {
		byStop[sa.Stop.ID] = sa.Upcoming
	}

	fmt.Printf("%-28s %12s %12s\n", "Stop", "-> Armilla", "-> Albolote")
	for _, stop := range client.Stops() {
		fmt.Printf("%-28s %12s %12s\n",
			stop.Name,
			formatNext(byStop[stop.ID], models.DirectionArmilla),
			formatNext(byStop[stop.ID], models.DirectionAlbolote))
	}
	fmt.Printf("\nLast stop-list update: %s\n", client.LastUpdate().Format("15:04"))
}

func formatNext(arrivals []models.Arrival, direction string) string {
	if minutes, ok := models.NextInDirection(arrivals, direction); ok {
		return fmt.Sprintf("%d min", minutes)
	}
	return "—"
}
