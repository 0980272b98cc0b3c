// Command neocertify is the operator CLI for the supply-chain ledger. It
// opens the store selected by the NEOCERTIFY_* environment and exposes
// inspection and demo subcommands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"neocertify/internal/blob"
	"neocertify/internal/core"
	"neocertify/internal/notify"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "neocertify",
		Short:         "Pharmaceutical supply-chain unit-tracking ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newOrgsCommand(&verbose))
	root.AddCommand(newInventoryCommand(&verbose))
	root.AddCommand(newHistoryCommand(&verbose))
	root.AddCommand(newDemoCommand(&verbose))
	return root
}

// openService wires the service against the environment-selected store,
// blob backend, and a zap logger.
func openService(verbose bool) (*core.Service, *zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine(nil))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	blobs, err := blob.Open(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("open blob store: %w", err)
	}
	svc := core.NewService(store,
		core.WithLogger(core.NewZapLogger(logger)),
		core.WithMetrics(core.NewExpvarMetricsRecorder("")),
		core.WithBlobStore(blobs),
		core.WithDispatcher(notify.NewLogDispatcher(logger)),
	)
	return svc, logger, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newOrgsCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "orgs",
		Short: "List registered organizations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, logger, err := openService(*verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			orgs, err := svc.ListOrganizations(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, orgs)
		},
	}
}

func newInventoryCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory <organization-id>",
		Short: "Show an organization's in-stock units by product and lot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := openService(*verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			summary, err := svc.Inventory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
}

func newHistoryCommand(verbose *bool) *cobra.Command {
	var (
		page     int
		pageSize int
		kinds    []string
		since    string
	)
	cmd := &cobra.Command{
		Use:   "history <organization-id>",
		Short: "Show an organization's event feed, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := openService(*verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			filter := core.HistoryFilter{}
			for _, k := range kinds {
				filter.Kinds = append(filter.Kinds, core.HistoryKind(k))
			}
			if since != "" {
				from, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("parse --since: %w", err)
				}
				filter.From = from
			}
			feed, err := svc.History(cmd.Context(), args[0], page, pageSize, filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, feed)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "entries per page")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "filter by entry kind (shipped, received, treated, disposed, returned, recalled)")
	cmd.Flags().StringVar(&since, "since", "", "only entries on or after this date (YYYY-MM-DD)")
	return cmd
}

// newDemoCommand seeds a full supply chain into the configured store and
// walks one production-to-treatment flow, printing the resulting inventory.
func newDemoCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Seed a demo supply chain and run one production-to-treatment flow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, logger, err := openService(*verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			ctx := cmd.Context()

			admin, _, err := svc.RegisterOrganization(ctx, core.RegisterOrganizationInput{Name: "Ledger Admin", Type: core.OrgAdmin})
			if err != nil {
				return err
			}
			register := func(name string, typ core.OrganizationType) (core.Organization, error) {
				org, _, err := svc.RegisterOrganization(ctx, core.RegisterOrganizationInput{Name: name, Type: typ, BusinessNumber: "000-00-00000"})
				if err != nil {
					return core.Organization{}, err
				}
				org, _, err = svc.ApproveOrganization(ctx, admin.ID, org.ID)
				return org, err
			}
			maker, err := register("Aster Pharm", core.OrgManufacturer)
			if err != nil {
				return err
			}
			dist, err := register("Meridian Distribution", core.OrgDistributor)
			if err != nil {
				return err
			}
			hosp, err := register("Riverside Hospital", core.OrgHospital)
			if err != nil {
				return err
			}

			product, _, err := svc.CreateProduct(ctx, maker.ID, core.ProductInput{ModelName: "Dermaluxe 100U", UDI: "0884838012345"})
			if err != nil {
				return err
			}
			lot, _, err := svc.CreateLot(ctx, core.CreateLotInput{ManufacturerID: maker.ID, ProductID: product.ID, Quantity: 100})
			if err != nil {
				return err
			}
			if _, _, err := svc.Transfer(ctx, core.TransferInput{SourceID: maker.ID, DestinationID: dist.ID, ProductID: product.ID, Quantity: 40}); err != nil {
				return err
			}
			if _, _, err := svc.Transfer(ctx, core.TransferInput{SourceID: dist.ID, DestinationID: hosp.ID, ProductID: product.ID, Quantity: 10}); err != nil {
				return err
			}
			if _, _, err := svc.ConsumeForTreatment(ctx, core.TreatmentInput{HospitalID: hosp.ID, ProductID: product.ID, Quantity: 3, PatientPhone: "010-1234-5678"}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "lot %s created, 100 units allocated\n", lot.LotNumber)
			for _, org := range []core.Organization{maker, dist, hosp} {
				summary, err := svc.Inventory(ctx, org.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %3d in stock\n", org.Name, summary.Total)
			}
			return nil
		},
	}
}
