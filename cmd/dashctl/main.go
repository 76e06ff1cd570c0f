package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/storeadmin/internal/apiclient"
	"github.com/andresuchdata/storeadmin/internal/cache"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/andresuchdata/storeadmin/internal/repository/remote"
	"github.com/andresuchdata/storeadmin/internal/service"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type servicesKey struct{}

type services struct {
	catalog *service.CatalogService
	orders  *service.OrderService
	calc    *service.CalculationService
}

func initServices(c *cli.Context) error {
	encoding, err := apiclient.ParseEncoding(c.String("encoding"))
	if err != nil {
		return err
	}

	client := apiclient.New(c.String("api-url"),
		apiclient.WithTimeout(c.Duration("timeout")),
		apiclient.WithDefaultEncoding(encoding),
	)
	repo := remote.NewRepository(client)
	catalog := service.NewCatalogService(repo, cache.NewNoopCatalogCache())

	c.Context = context.WithValue(c.Context, servicesKey{}, &services{
		catalog: catalog,
		orders:  service.NewOrderService(repo, catalog),
		calc:    service.NewCalculationService(repo),
	})
	return nil
}

func servicesFrom(c *cli.Context) *services {
	return c.Context.Value(servicesKey{}).(*services)
}

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dashctl",
		Usage: "Inspect the store API from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the order/inventory API",
				Value:   "http://localhost:5050",
				EnvVars: []string{"API_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "encoding",
				Usage:   "POST body encoding for mutations (json or form)",
				Value:   "json",
				EnvVars: []string{"API_POST_ENCODING"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout, 0 disables it",
				Value: 30 * time.Second,
			},
		},
		Before: initServices,
		Commands: []*cli.Command{
			{
				Name:   "products",
				Usage:  "List products",
				Action: listProducts,
			},
			{
				Name:  "orders",
				Usage: "List recent orders",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "List every order instead of the recent ones",
					},
				},
				Action: listOrders,
			},
			{
				Name:  "simulate",
				Usage: "Run the revenue simulation",
				Flags: []cli.Flag{
					&cli.Int64SliceFlag{
						Name:     "product-id",
						Usage:    "Product to include (repeatable)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Days to simulate (1-365)",
						Value: 7,
					},
					&cli.IntFlag{
						Name:    "seed",
						Usage:   "Random seed",
						Value:   123,
						EnvVars: []string{"SIMULATION_SEED"},
					},
				},
				Action: simulate,
			},
			{
				Name:  "spend",
				Usage: "Calculate the inventory spend of a month",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "year", Required: true},
					&cli.IntFlag{Name: "month", Required: true},
					&cli.StringFlag{
						Name:     "file",
						Usage:    "JSON file with an array of {date, qty, cost, category}",
						Required: true,
					},
				},
				Action: spend,
			},
		},
	}
}

func listProducts(c *cli.Context) error {
	products, err := servicesFrom(c).catalog.ListProducts(c.Context)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUNIT\tPRICE\tQUANTITY")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.UOMName, domain.FormatMoney(p.PricePerUnit), domain.FormatQuantity(p.Quantity))
	}
	return w.Flush()
}

func listOrders(c *cli.Context) error {
	orders, err := servicesFrom(c).orders.ListOrders(c.Context, !c.Bool("all"))
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tORDER\tCUSTOMER\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", o.FormattedDate(), o.ID, o.CustomerName, domain.FormatMoney(o.TotalPrice))
	}
	return w.Flush()
}

func simulate(c *cli.Context) error {
	req := domain.SimulationRequest{
		ProductIDs: c.Int64Slice("product-id"),
		Days:       c.Int("days"),
		Seed:       c.Int("seed"),
	}
	result, err := servicesFrom(c).calc.RevenueSimulation(c.Context, req)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tINITIAL\tSOLD\tREMAINING\tREVENUE\tCOST\tPROFIT\tMARGIN%")
	for _, d := range result.Details {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%.2f\n",
			d.Product, domain.FormatQuantity(d.InitialStock), d.SoldUnits, domain.FormatQuantity(d.RemainingStock),
			domain.FormatMoney(d.Revenue), domain.FormatMoney(d.Cost), domain.FormatMoney(d.Profit), d.ProfitMarginPercent)
	}
	s := result.Summary
	fmt.Fprintf(w, "TOTAL\t\t%d\t\t%s\t%s\t%s\t%.2f\n",
		s.TotalUnitsSold, domain.FormatMoney(s.TotalRevenue), domain.FormatMoney(s.TotalCost), domain.FormatMoney(s.TotalProfit), s.ProfitMarginPercent)
	return w.Flush()
}

func spend(c *cli.Context) error {
	f, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("open orders file: %w", err)
	}
	defer f.Close()

	orders, err := readSpendOrders(f)
	if err != nil {
		return err
	}

	result, err := servicesFrom(c).calc.InventorySpend(c.Context, domain.SpendRequest{
		Year:   c.Int("year"),
		Month:  c.Int("month"),
		Orders: orders,
	})
	if err != nil {
		return fmt.Errorf("spend: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Total spend: %s\n", domain.FormatMoney(result.TotalSpend))
	for _, category := range slices.Sorted(maps.Keys(result.CategoryBreakdown)) {
		fmt.Fprintf(c.App.Writer, "  %s: %s\n", category, domain.FormatMoney(result.CategoryBreakdown[category]))
	}
	if d := result.HighestCostDriver; d != nil {
		fmt.Fprintf(c.App.Writer, "Highest cost driver: %s (%s)\n", d.Category, domain.FormatMoney(d.Amount))
	}
	return nil
}

func readSpendOrders(r io.Reader) ([]domain.SpendOrder, error) {
	var orders []domain.SpendOrder
	if err := json.NewDecoder(r).Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode orders file: %w", err)
	}
	return orders, nil
}
