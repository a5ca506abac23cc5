package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/connectleads/wamanager/config"
	"github.com/connectleads/wamanager/internal/app"
	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/instancesvc"
	"github.com/connectleads/wamanager/internal/lifecycle"
	"github.com/spf13/cobra"
)

var errDatabaseUnavailable = errors.New("database unavailable, check the database section of the config")

var locationID string

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List the instances of a location",
	Long:  `Fetch the instances of a location from the remote instance service and print their canonical status.`,
	RunE:  runInstances,
}

func init() {
	instancesCmd.Flags().StringVarP(&locationID, "location", "l", "", "tenant location id (default from config)")
	rootCmd.AddCommand(instancesCmd)
}

// remoteContext bounds a cli call by timeout; zero means no deadline, as for
// the http client itself.
func remoteContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func runInstances(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	app.InitLogger(cfg.Logger)

	tenant := lifecycle.ResolveTenant(locationID, cfg.Tenant.LocationID, cfg.Tenant.NamePrefix)
	if !tenant.Resolved() {
		return errors.New("no location id, pass --location or set tenant.location_id")
	}

	svc := instancesvc.NewHTTPClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)
	ctx, cancel := remoteContext(cfg.Remote.Timeout)
	defer cancel()
	items, err := svc.ListInstances(ctx, tenant.LocationID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tALIAS\tSTATUS\tMAIN\tUSER")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", item.InstanceName, item.Alias, item.Status(), item.IsMainDevice, item.UserName)
	}
	fmt.Fprintf(w, "\n%d/%d instances\n", len(items), domain.MaxInstances)
	return w.Flush()
}
