package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/pagectl/internal/client"
	"github.com/danmuck/pagectl/internal/config"
	"github.com/danmuck/pagectl/internal/discovery"
	"github.com/danmuck/pagectl/internal/instance"
	"github.com/danmuck/pagectl/internal/protocol"
	"github.com/danmuck/pagectl/internal/worker"
)

func runWorker(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "TOML config file path")
	name := fs.String("name", "", "instance name")
	url := fs.String("url", "", "target document URL")
	scope := fs.String("scope", "", "instance scope: local or global")
	debugAddr := fs.String("debug-addr", "", "optional debug HTTP listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := worker.DefaultServiceConfig()
	if *configPath != "" {
		loaded, err := config.LoadServiceConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *name != "" {
		cfg.Name = *name
	}
	if *url != "" {
		cfg.URL = *url
	}
	if *scope != "" {
		parsed, err := instance.ParseScope(*scope)
		if err != nil {
			return err
		}
		if parsed == instance.ScopeAuto {
			return fmt.Errorf("a worker binds one scope: pass local or global")
		}
		cfg.Scope = parsed
	}
	if *debugAddr != "" {
		cfg.DebugListenAddr = *debugAddr
	}

	svc, err := worker.NewService(cfg)
	if err != nil {
		return err
	}
	return svc.Run()
}

func runList(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	scope := fs.String("scope", "auto", "scope to search: local, global, or auto")
	if err := fs.Parse(args); err != nil {
		return err
	}
	disco, err := discoveryFor(*scope)
	if err != nil {
		return err
	}
	live, err := disco.ListLive(context.Background())
	if err != nil {
		return err
	}
	if len(live) == 0 {
		fmt.Println("no live instances")
		return nil
	}
	for _, rec := range live {
		fmt.Printf("%s\tpid=%d\turl=%s\tstarted=%s\n",
			rec.Name, rec.PID, rec.URL, rec.StartedAt.Format(time.RFC3339))
	}
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	name := fs.String("name", "", "instance name (optional when one is live)")
	scope := fs.String("scope", "auto", "scope to search")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "round-trip timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rec, err := resolveTarget(*scope, *name)
	if err != nil {
		return err
	}
	resp, err := client.Info(context.Background(), rec.Address, *timeout)
	if err != nil {
		return err
	}
	if !resp.Succeeded() {
		return fmt.Errorf("%s", resp.Error)
	}
	return printJSON(resp.Data())
}

func runEvents(args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	name := fs.String("name", "", "instance name (optional when one is live)")
	scope := fs.String("scope", "auto", "scope to search")
	keyword := fs.String("q", "", "filter events by keyword")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "round-trip timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rec, err := resolveTarget(*scope, *name)
	if err != nil {
		return err
	}
	resp, err := client.Events(context.Background(), rec.Address, *timeout)
	if err != nil {
		return err
	}
	if !resp.Succeeded() {
		return fmt.Errorf("%s", resp.Error)
	}

	var events []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(resp.Data()), &events); err != nil {
		return fmt.Errorf("decode event listing: %w", err)
	}
	needle := strings.ToLower(strings.TrimSpace(*keyword))
	for _, ev := range events {
		if needle != "" &&
			!strings.Contains(strings.ToLower(ev.Name), needle) &&
			!strings.Contains(strings.ToLower(ev.Description), needle) {
			continue
		}
		fmt.Printf("%s\t%s\n", ev.Name, ev.Description)
	}
	return nil
}

// runSend executes event/input pairs in argument order as one batch.
func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	name := fs.String("name", "", "instance name (optional when one is live)")
	scope := fs.String("scope", "auto", "scope to search")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "round-trip timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("send requires at least one event name")
	}
	var calls []protocol.EventCall
	for i := 0; i < len(rest); i++ {
		call := protocol.EventCall{EventName: rest[i]}
		if i+1 < len(rest) && strings.HasPrefix(strings.TrimSpace(rest[i+1]), "{") {
			call.InputJSON = rest[i+1]
			i++
		}
		calls = append(calls, call)
	}

	rec, err := resolveTarget(*scope, *name)
	if err != nil {
		return err
	}
	results, err := client.Execute(context.Background(), rec.Address, calls, *timeout)
	if err != nil {
		return err
	}
	for i, result := range results {
		fmt.Printf("%s: %s\n", calls[i].EventName, string(result))
	}
	return nil
}

func discoveryFor(rawScope string) (*discovery.Service, error) {
	scope, err := instance.ParseScope(rawScope)
	if err != nil {
		return nil, err
	}
	return discovery.New(scope)
}

func resolveTarget(rawScope, name string) (instance.Record, error) {
	disco, err := discoveryFor(rawScope)
	if err != nil {
		return instance.Record{}, err
	}
	return disco.Resolve(context.Background(), name)
}

func printJSON(raw string) error {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
