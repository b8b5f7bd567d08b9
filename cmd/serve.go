package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/bnema/coursecal/internal/calendar"
	"github.com/bnema/coursecal/internal/nerdfonts"
	"github.com/bnema/coursecal/internal/quotes"
	"github.com/bnema/coursecal/internal/server"
)

var listenFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local API used by the browser extension",
	Long: `Start a local HTTP server that accepts uploaded registration exports and
calendar creation requests.

Syncs started from the server never prompt for consent, so run
'coursecal auth' first. Only one sync runs at a time; a second request while
one is in progress gets 409 Conflict.

Endpoints:
  POST /api/schedule   multipart "file" -> {courses, skipped}
  POST /api/messages   {"action":"createCalendarAndAddCourses","courses":[...]}
  GET  /api/quote      a line to show while waiting
  GET  /health`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "address to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := listenFlag
	if addr == "" {
		addr = cfg.Server.Listen
	}

	syncer, err := newSyncer(syncOptions(false))
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(syncer, &calendar.Guard{}, quotes.Default(), server.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Sheet:          cfg.Spreadsheet.Sheet,
		HeaderRow:      cfg.Spreadsheet.HeaderRow,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s Listening on http://%s\n", nerdfonts.Calendar, addr)
	return srv.Run(ctx, addr)
}
