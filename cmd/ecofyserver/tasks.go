package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rishika-pasricha/Hack-Hub/internal/email"
	"github.com/Rishika-pasricha/Hack-Hub/internal/mailsink"
)

/* ---------- data maintenance ---------- */

func importCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import-municipalities [path]",
		Short: "Upsert the municipality directory from a CSV dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			path := a.Config().MunicipalityCSV
			if len(args) == 1 {
				path = args[0]
			}
			res, err := a.Directory().SyncFile(ctx, path)
			if err != nil {
				return err
			}
			a.Log().Info("municipalities imported", "path", path, "upserts", res.Upserts, "skipped", res.Skipped)
			return nil
		},
	}
}

func reconcileCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Finish product removals left pending by an interrupted request",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Services().Products.Reconcile(ctx)
			if err != nil {
				return err
			}
			a.Log().Info("reconcile finished", "applied", n)
			return nil
		},
	}
}

/* ---------- development mail sink ---------- */

func mailsinkCmd(g *globalFlags) *cobra.Command {
	var opts mailsink.Options

	cmd := &cobra.Command{
		Use:   "mailsink",
		Short: "Run a local SMTP server that captures outgoing OTP mail",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g)
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend, err := mailsink.NewBackend(opts, mailsink.NewInbox(100), logger)
			if err != nil {
				return err
			}
			srv := mailsink.NewServer(backend)

			l, err := net.Listen("tcp", opts.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", opts.Addr, err)
			}
			go func() {
				<-ctx.Done()
				srv.Close()
			}()

			logger.Info("mail sink listening", "addr", l.Addr().String(), "spool", opts.SpoolDir)
			return mailsink.Serve(srv, l)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:2525", "Listen address")
	cmd.Flags().StringVar(&opts.Domain, "domain", "localhost", "Server domain announced in the greeting")
	cmd.Flags().StringVar(&opts.Username, "username", "", "Require AUTH PLAIN with this username")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Password for --username")
	cmd.Flags().StringVar(&opts.SpoolDir, "spool", "", "Directory to write captured messages to")
	return cmd
}

/* ---------- DKIM ---------- */

func dkimKeygenCmd() *cobra.Command {
	var (
		domain, selector, outputDir string
		bits                        int
	)

	cmd := &cobra.Command{
		Use:   "dkim-keygen",
		Short: "Generate a DKIM signing key and print its DNS record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if domain == "" {
				return errors.New("--domain is required")
			}
			pemBytes, key, err := email.GenerateKey(bits)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}

			path := filepath.Join(outputDir, "private.key")
			if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
				return fmt.Errorf("write key: %w", err)
			}

			record, err := email.PublicKeyRecord(&key.PublicKey)
			if err != nil {
				return err
			}
			fmt.Printf("Private key written to %s\n", path)
			fmt.Printf("Add this TXT record to your DNS:\n")
			fmt.Printf("%s IN TXT %q\n", email.RecordName(selector, domain), record)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Sending domain")
	cmd.Flags().StringVar(&selector, "selector", "mail", "DKIM selector")
	cmd.Flags().StringVar(&outputDir, "output", ".", "Output directory")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA key size")
	return cmd
}

type dnsReport struct {
	Domain     string             `json:"domain"`
	Selector   string             `json:"selector"`
	DKIM       string             `json:"dkim"`
	SPF        string             `json:"spf,omitempty"`
	DMARC      *email.DMARCPolicy `json:"dmarc,omitempty"`
	SPFError   string             `json:"spfError,omitempty"`
	DMARCError string             `json:"dmarcError,omitempty"`
	KeyIsLive  bool               `json:"keyIsLive"`
}

func dkimCheckCmd(g *globalFlags) *cobra.Command {
	var resolver email.Resolver

	cmd := &cobra.Command{
		Use:   "dkim-check",
		Short: "Compare the configured DKIM key with DNS and report SPF and DMARC",
		RunE: func(cmd *cobra.Command, args []string) error {
			newLogger(g)
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if cfg.DKIM.Domain == "" || cfg.DKIM.KeyFile == "" {
				return errors.New("dkim.domain and dkim.key_file must be configured")
			}
			signer, err := email.NewDKIMSigner(cfg.DKIM.Domain, cfg.DKIM.Selector, cfg.DKIM.KeyFile)
			if err != nil {
				return err
			}

			rep := dnsReport{Domain: signer.Domain(), Selector: signer.Selector(), DKIM: "ok"}
			checkErr := resolver.CheckPublishedKey(signer)
			if checkErr != nil {
				rep.DKIM = checkErr.Error()
			} else {
				rep.KeyIsLive = true
			}
			if rep.SPF, err = resolver.SPF(rep.Domain); err != nil {
				rep.SPFError = err.Error()
			}
			if rep.DMARC, err = resolver.DMARC(rep.Domain); err != nil {
				rep.DMARCError = err.Error()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			return checkErr
		},
	}

	cmd.Flags().StringVar(&resolver.Server, "resolver", email.DefaultResolver, "DNS server address")
	cmd.Flags().StringVar(&resolver.Net, "net", "udp", "DNS transport (udp or tcp)")
	return cmd
}
