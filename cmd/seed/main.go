// Command seed creates the administrative principal, or replaces its
// password when it already exists.
//
// Usage:
//
//	seed -driver sqlite -d file:portfolio.db -email owner@example.com
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/flagx"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server"
	"github.com/dmitrijs2005/portfolio/internal/server/config"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	var email string
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "database driver: postgres or sqlite")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&email, "email", "", "administrator email")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-driver", "-d", "-email"})); err != nil {
		return err
	}

	reader := bufio.NewReader(stdin)
	if email == "" {
		var err error
		if email, err = getSimpleText(reader, "Administrator email", stdout); err != nil {
			return err
		}
	}

	password, err := getPassword("Enter password", stdout)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat password", stdout)
	if err != nil {
		return err
	}
	defer clear(password)
	defer clear(confirm)
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	db, m, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	s := services.NewAuthService(db, m, nil, nil, cfg.StoreTimeout, logging.Nop{})
	p, err := s.SetPrincipal(ctx, email, string(password), time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Principal %s ready (%s)\n", p.Email, p.ID)
	return nil
}
