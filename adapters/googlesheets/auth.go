package googlesheets

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	sheetproc "github.com/ideamans/go-sheetproc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ServiceAccountKey represents the structure of a service account JSON key file
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri"`
}

// Connect authenticates with a service account key file. It is the
// sheetproc.Connector used by NewHandler.
func Connect(ctx context.Context, credentialsPath string) (sheetproc.Adapter, error) {
	return NewWithJSONKeyFile(ctx, credentialsPath)
}

// ConnectWith returns a Connector that passes extra client options, e.g. a
// custom endpoint or HTTP client, to every service it creates
func ConnectWith(opts ...option.ClientOption) sheetproc.Connector {
	return func(ctx context.Context, credentialsPath string) (sheetproc.Adapter, error) {
		return NewWithJSONKeyFile(ctx, credentialsPath, opts...)
	}
}

// NewHandler loads the configuration at configPath and authenticates
// against Google Sheets with the service account it names
func NewHandler(ctx context.Context, configPath string, opts ...sheetproc.Option) *sheetproc.Handler {
	return sheetproc.Create(ctx, configPath, Connect, opts...)
}

// NewWithJSONKeyFile creates a new SheetsAdaptor using a service account key file.
// The file contents are kept in locked memory and wiped once parsed.
func NewWithJSONKeyFile(ctx context.Context, jsonPath string, opts ...option.ClientOption) (*SheetsAdaptor, error) {
	// If jsonPath is empty, try GOOGLE_APPLICATION_CREDENTIALS env var
	if jsonPath == "" {
		jsonPath = os.Getenv(sheetproc.CredentialsEnv)
		if jsonPath == "" {
			return nil, fmt.Errorf("no JSON key file path provided and %s not set", sheetproc.CredentialsEnv)
		}
	}

	f, err := os.Open(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON key file: %w", err)
	}
	defer f.Close()

	buf, err := memguard.NewBufferFromEntireReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON key file: %w", err)
	}
	defer buf.Destroy()

	return NewWithJSONKeyData(ctx, buf.Bytes(), opts...)
}

// NewWithJSONKeyData creates a new SheetsAdaptor using service account JSON
// data. jsonData is not retained.
func NewWithJSONKeyData(ctx context.Context, jsonData []byte, opts ...option.ClientOption) (*SheetsAdaptor, error) {
	key, err := ParseServiceAccountJSON(jsonData)
	if err != nil {
		return nil, err
	}

	tokenSource := tokenSourceFromKey(ctx, key)
	return NewSheetsAdaptor(ctx, append([]option.ClientOption{option.WithTokenSource(tokenSource)}, opts...)...)
}

// NewWithServiceAccountKey creates a new SheetsAdaptor using email and private key
func NewWithServiceAccountKey(ctx context.Context, email string, privateKey string, opts ...option.ClientOption) (*SheetsAdaptor, error) {
	if email == "" {
		return nil, fmt.Errorf("service account email is required")
	}
	if err := checkPrivateKey(privateKey); err != nil {
		return nil, err
	}
	tokenSource := tokenSourceFromKey(ctx, &ServiceAccountKey{
		Type:        "service_account",
		ClientEmail: email,
		PrivateKey:  privateKey,
	})
	return NewSheetsAdaptor(ctx, append([]option.ClientOption{option.WithTokenSource(tokenSource)}, opts...)...)
}

// ParseServiceAccountJSON parses a service account JSON file or data
func ParseServiceAccountJSON(jsonData []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(jsonData, &key); err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}

	if key.Type != "service_account" {
		return nil, fmt.Errorf("invalid key type: %s (expected: service_account)", key.Type)
	}

	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("missing required fields in service account key")
	}

	if err := checkPrivateKey(key.PrivateKey); err != nil {
		return nil, err
	}

	return &key, nil
}

// checkPrivateKey verifies that key is a PEM encoded RSA key in PKCS#8 or
// PKCS#1 form. The token source only decodes it on the first request.
func checkPrivateKey(key string) error {
	block, _ := pem.Decode([]byte(key))
	if block == nil {
		return errors.New("invalid private key: not PEM encoded")
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	if _, ok := parsed.(*rsa.PrivateKey); !ok {
		return fmt.Errorf("invalid private key: %T is not an RSA key", parsed)
	}
	return nil
}

func tokenSourceFromKey(ctx context.Context, key *ServiceAccountKey) oauth2.TokenSource {
	tokenURL := key.TokenURI
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	jwtConfig := &jwt.Config{
		Email:        key.ClientEmail,
		PrivateKey:   []byte(key.PrivateKey),
		PrivateKeyID: key.PrivateKeyID,
		Scopes:       []string{sheets.SpreadsheetsScope},
		TokenURL:     tokenURL,
	}
	return jwtConfig.TokenSource(ctx)
}
