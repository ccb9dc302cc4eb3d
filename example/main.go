package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	eapi "github.com/st-keller/eapi-client"
	"github.com/st-keller/eapi-client/endpoint"
	"github.com/st-keller/eapi-client/registry"
	"github.com/st-keller/eapi-client/resource"
)

type report struct {
	BaseScheme string `json:"base_scheme"`
	BaseHost   string `json:"base_host"`
	BaseURI    string `json:"base_uri"`
}

func (r report) Address() string {
	return r.BaseScheme + "://" + r.BaseHost + r.BaseURI
}

func main() {
	log.Println("🚀 Starting eAPI example")

	// The demo account is limited on credits and refreshed periodically.
	// Without EAPI_CA_PATH the bundled anchors are pinned.
	client, err := eapi.New(eapi.Config{
		Token:  "demo",
		Key:    "demo",
		CAPath: os.Getenv("EAPI_CA_PATH"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to create eAPI client: %v", err)
	}

	// Every call that spends credits reports the remaining balance.
	err = client.Callback("account_credits", func(res resource.Resource) error {
		var credits int
		if err := res.DecodeDataset(&credits); err != nil {
			return err
		}
		log.Printf("💳 Looks like we only have %d credits left", credits)
		return nil
	})
	if err != nil {
		log.Fatalf("❌ Failed to register callback: %v", err)
	}

	var addresses []string
	err = client.Callback("reports_list", func(res resource.Resource) error {
		var reports []report
		if err := res.DecodeDataset(&reports); err != nil {
			return err
		}
		for _, r := range reports {
			addresses = append(addresses, r.Address())
		}
		return nil
	})
	if err != nil {
		log.Fatalf("❌ Failed to register callback: %v", err)
	}

	err = client.Callback("reports_create", registry.Observe(func(res resource.Resource) {
		log.Printf("📝 Report scheduled (source: %q)", res.SourceString())
	}))
	if err != nil {
		log.Fatalf("❌ Failed to register callback: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Example 1: Create a report. Costs 2 credits, which fires account_credits.
	log.Println("📝 Example 1: post_reports_create")
	created, err := client.Invoke(ctx, "post_reports_create", endpoint.P(
		"website", "http://bbc.co.uk/", // starting point, any valid URL
		"websiteDepth", 0, // how many links deep, maximum 10
		"websiteTraverse", 1, // 1 = no traverse, 2 = sub domain traverse
		"notifyTwitter", false,
		"notifyEmail", false,
		"notifyEmailAddress", "email@changeme",
	))
	if err != nil {
		log.Fatalf("❌ Failed to create report: %v", err)
	}
	for _, e := range created.Errors() {
		log.Printf("⚠️  Server error for %s: %s", e.Name(), e.Dataset)
	}

	// Example 2: Top 10 reports by total shares. Fires the reports_list callback.
	log.Println("📋 Example 2: get_reports_list")
	list, err := client.Get(ctx, "reports", "list", endpoint.P(
		"records", 10,
		"orderColumn", "total_shares",
		"orderDirection", "desc",
	))
	if err != nil {
		log.Fatalf("❌ Failed to list reports: %v", err)
	}

	log.Printf("✅ Callback collected %d addresses", len(addresses))
	for _, address := range addresses {
		log.Printf("   %s", address)
	}

	// Example 3: Skip the callbacks and walk the transactions directly.
	log.Println("🔁 Example 3: Looping over transactions")
	for _, tx := range list.Transactions() {
		if tx.Mark != resource.Mark("reports_list") {
			continue
		}
		var reports []report
		if err := tx.DecodeDataset(&reports); err != nil {
			log.Printf("⚠️  Failed to decode dataset: %v", err)
			continue
		}
		for _, r := range reports {
			log.Printf("   %s", r.Address())
		}
	}

	for _, cbErr := range list.CallbackErrors() {
		log.Printf("⚠️  Callback failed: %v", cbErr)
	}

	log.Println("")
	log.Println("📊 Call statistics")
	for _, s := range client.Stats() {
		log.Printf("   %-20s %-9s calls=%d p50=%dms", s.Endpoint, s.Status, s.TotalCalls, s.Latency.P50)
	}
}
