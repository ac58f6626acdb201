package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/quantonganh/waitlist"
	"github.com/quantonganh/waitlist/export"
)

const requestTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	flags := pflag.NewFlagSet("waitlist-export", pflag.ExitOnError)
	flags.String("url", "http://localhost:8080", "base URL of the waitlist server")
	flags.String("password", "", "admin password (or ADMIN_PASSWORD)")
	flags.String("out", export.FileName, "file to write")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)
	_ = v.BindEnv("password", "ADMIN_PASSWORD")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	entries, err := fetchEmails(ctx, http.DefaultClient, v.GetString("url"), v.GetString("password"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to fetch emails")
	}

	out := v.GetString("out")
	if err := os.WriteFile(out, []byte(export.CSV(entries)), 0o600); err != nil {
		logger.Fatal().Err(err).Str("file", out).Msg("Failed to write export")
	}

	logger.Info().Int("count", len(entries)).Str("file", out).Msg("Exported")
}

// fetchEmails calls GET /api/emails with the password header
func fetchEmails(ctx context.Context, client *http.Client, baseURL, password string) ([]waitlist.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/emails", nil)
	if err != nil {
		return nil, errors.Wrap(err, "http.NewRequest")
	}
	req.Header.Set("x-admin-password", password)

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "client.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("%s: %s", resp.Status, body.Error)
	}

	var emails waitlist.EmailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return nil, errors.Wrap(err, "json.Decode")
	}

	return emails.Emails, nil
}
