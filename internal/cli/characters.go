package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haneoka/mygo-cli/internal/personas"
)

var charactersRemote bool

var charactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "List the available band members",
	Long: `List the band member personas you can chat or debate with.

With --remote the list is fetched from the server instead, including each
character's signature quotes.`,
	RunE: runCharacters,
}

func init() {
	charactersCmd.Flags().BoolVar(&charactersRemote, "remote", false, "fetch the roster from the server")
}

func runCharacters(cmd *cobra.Command, args []string) error {
	if charactersRemote {
		return listRemoteCharacters()
	}

	for _, p := range personas.All() {
		name := personaStyle(p).Render(p.Name)
		fmt.Printf("%s %s (%s) · %s\n", p.Avatar, name, p.NameJP, p.Role)
		fmt.Printf("   %s\n", defaultTheme.hintStyle().Render(p.Description))
	}
	return nil
}

func listRemoteCharacters() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	infos, err := apiClient.Philosophers(ctx)
	if err != nil {
		return fmt.Errorf("list characters: %w", err)
	}

	for _, info := range infos {
		fmt.Printf("%s (%s)\n", info.Name, info.Type)
		if info.Description != "" {
			fmt.Printf("   %s\n", info.Description)
		}
		for _, quote := range info.Quotes {
			fmt.Printf("   「%s」\n", quote)
		}
	}
	return nil
}
