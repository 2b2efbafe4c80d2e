package main

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/go-devis/internal/config"
	"github.com/diewo77/go-devis/internal/filestore"
	"github.com/diewo77/go-devis/internal/server"
	"github.com/diewo77/go-devis/internal/services"
)

// newApp constructs the file stores and services and wires them into the
// router. Everything is injected top-down from here; no package keeps global
// connection state.
func newApp(cfg *config.Config, conn *gorm.DB) (http.Handler, error) {
	documents, err := filestore.NewLocal(cfg.Files.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}
	signatures, err := filestore.NewLocal(cfg.Files.SignaturesDir)
	if err != nil {
		return nil, fmt.Errorf("signature store: %w", err)
	}

	quotes := services.NewQuoteService(conn, documents, signatures)
	imports := services.NewImportService(conn, quotes)

	return server.New(conn, quotes, imports), nil
}
