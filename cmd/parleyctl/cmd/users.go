package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var authToken string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authToken == "" {
			authToken = os.Getenv("PARLEY_TOKEN")
		}

		req, err := http.NewRequest(http.MethodGet, serverURL+"/api/users", nil)
		if err != nil {
			return err
		}
		if authToken != "" {
			req.Header.Set("Authorization", "Bearer "+authToken)
		}

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %s", resp.Status)
		}

		var users []struct {
			Username  string `json:"username"`
			Firstname string `json:"firstname"`
			Lastname  string `json:"lastname"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		w := os.Stdout
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s %s\n", u.Username, u.Firstname, u.Lastname)
		}
		return nil
	},
}

func init() {
	usersCmd.Flags().StringVar(&authToken, "token", "", "Session token (also read from PARLEY_TOKEN)")
	rootCmd.AddCommand(usersCmd)
}
