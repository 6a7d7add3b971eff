package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the server is reachable",
	RunE:  runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := apiClient.Health(ctx)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	fmt.Printf("%s (%s)\n", health.Status, health.Service)
	return nil
}
