package services

import (
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	// Well-known Azurite development account.
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// isLocal reports whether serviceURL points at a local emulator rather than Azure.
func isLocal(serviceURL string) bool {
	return strings.HasPrefix(serviceURL, "http://")
}

// getAzuriteCredentials returns the emulator account name and key.
func getAzuriteCredentials() (string, string) {
	return azuriteAccountName, azuriteAccountKey
}

// newDefaultAzureCredential creates the managed-identity credential chain used in Azure.
func newDefaultAzureCredential(component string) (azcore.TokenCredential, error) {
	slog.Info("using default Azure credentials", "component", component)
	return azidentity.NewDefaultAzureCredential(nil)
}
