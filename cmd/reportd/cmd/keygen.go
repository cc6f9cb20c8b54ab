package cmd

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/auth"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/config"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/db"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an API key for a tenant and store its hash",
	Long: `keygen generates a new API key signed with one of the configured HMAC
secrets and stores only the key hash. The plaintext key is printed once and
cannot be recovered afterwards.`,
	RunE: runKeygen,
}

var (
	keygenTenant   string
	keygenSecretID string
)

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenTenant, "tenant", "", "tenant the key authenticates as")
	keygenCmd.Flags().StringVar(&keygenSecretID, "secret-id", "", "secret_id to sign with (defaults to the only configured secret)")
	keygenCmd.MarkFlagRequired("tenant")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set RPT_HMAC_SECRET environment variable)")
	}

	if keygenSecretID == "" {
		if len(secrets) > 1 {
			return fmt.Errorf("multiple HMAC secrets configured, pick one with --secret-id")
		}
		for id := range secrets {
			keygenSecretID = id
		}
	}
	secret, ok := secrets[keygenSecretID]
	if !ok {
		return fmt.Errorf("no HMAC secret configured for secret_id %s", keygenSecretID)
	}

	if dbURL == "" {
		dbURL = cfg.DatabaseURL
	}
	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	key, err := auth.GenerateAPIKey(keygenSecretID)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	keyHash := hex.EncodeToString(auth.ComputeHMAC(secret, key))
	keyID := uuid.Must(uuid.NewV7()).String()

	_, err = queries.Exec("insert-api-key",
		keyID, keygenTenant, keyHash, keygenSecretID,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store key hash: %w", err)
	}

	fmt.Printf("key_id:  %s\n", keyID)
	fmt.Printf("tenant:  %s\n", keygenTenant)
	fmt.Printf("api_key: %s\n", key)
	fmt.Println("Store the api_key now; it is not recoverable from the database.")
	return nil
}
