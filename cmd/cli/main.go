package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

const (
	defaultServerURL = "http://localhost:8080"
	version          = "0.1.0"
)

type CLIConfig struct {
	ServerURL string
	Verbose   bool
}

func main() {
	var (
		serverURL = flag.String("server", defaultServerURL, "Forecast server URL")
		verbose   = flag.Bool("v", false, "Verbose output")
		command   = flag.String("cmd", "", "Command to execute")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *command == "" {
		showHelp()
		return
	}

	config := CLIConfig{
		ServerURL: *serverURL,
		Verbose:   *verbose,
	}

	args := flag.Args()

	switch *command {
	case "forecast":
		handleForecast(config, args)
	case "bulk":
		handleBulk(config, args)
	case "historical":
		handleHistorical(config, args)
	case "products":
		handleGet(config, "/api/products")
	case "models":
		handleGet(config, "/api/models")
	case "metrics":
		handleGet(config, "/api/model/metrics")
	case "kpis":
		handleGet(config, "/api/kpis")
	case "health":
		handleGet(config, "/api/health")
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		showHelp()
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Printf(`Demand Forecast Engine CLI v%s

USAGE:
    forecast-cli --cmd <command> [options] [args]

COMMANDS:
    forecast   - Request a demand forecast
    bulk       - Request forecasts for several products
    historical - Fetch historical sales
    products   - List known products and stores
    models     - List available models
    metrics    - Show model quality metrics
    kpis       - Show dashboard KPIs
    health     - Check service health

FORECASTING:
    forecast-cli --cmd forecast --days 7 --product Rice
    forecast-cli --cmd forecast --days 14 --product all --model exp_smoothing
    forecast-cli --cmd bulk --days 7 --products Rice,Water,Oil

HISTORY:
    forecast-cli --cmd historical --days 30 --product Rice

MONITORING:
    forecast-cli --cmd models
    forecast-cli --cmd metrics
    forecast-cli --cmd health

OPTIONS:
    --server   Server URL (default: %s)
    --v        Verbose output
    --help     Show this help message

`, version, defaultServerURL)
}

func handleForecast(config CLIConfig, args []string) {
	var (
		days    = getArg(args, "--days", "7")
		product = getArg(args, "--product", "all")
		model   = getArg(args, "--model", "")
	)

	url := fmt.Sprintf("%s/api/forecast?days=%s&product=%s", config.ServerURL, days, product)
	if model != "" {
		url += "&model=" + model
	}
	body, err := httpGet(config, url)
	if err != nil {
		fmt.Printf("Error requesting forecast: %v\n", err)
		os.Exit(1)
	}

	var resp struct {
		Model    string `json:"model"`
		Mode     string `json:"mode"`
		Reason   string `json:"reason"`
		Forecast []struct {
			Date       string  `json:"date"`
			Prediction float64 `json:"prediction"`
			LowerBound float64 `json:"lower_bound"`
			UpperBound float64 `json:"upper_bound"`
			Confidence float64 `json:"confidence"`
		} `json:"forecast"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		fmt.Printf("Error parsing response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Forecast for %s (model=%s, mode=%s)\n", product, resp.Model, resp.Mode)
	if resp.Reason != "" {
		fmt.Printf("Degraded: %s\n", resp.Reason)
	}
	for _, rec := range resp.Forecast {
		fmt.Printf("  %s  %8.2f  [%8.2f, %8.2f]  conf=%.2f\n",
			rec.Date, rec.Prediction, rec.LowerBound, rec.UpperBound, rec.Confidence)
	}
}

func handleBulk(config CLIConfig, args []string) {
	var (
		days     = getArg(args, "--days", "7")
		products = getArg(args, "--products", "")
	)
	if products == "" {
		fmt.Println("Error: --products is required")
		return
	}

	var daysInt int
	if _, err := fmt.Sscanf(days, "%d", &daysInt); err != nil {
		fmt.Printf("Error: invalid days '%s'\n", days)
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"products": strings.Split(products, ","),
		"days":     daysInt,
	})

	resp, err := http.Post(config.ServerURL+"/api/forecast/bulk", "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("Error requesting bulk forecast: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	printJSON(body)
}

func handleHistorical(config CLIConfig, args []string) {
	var (
		days    = getArg(args, "--days", "30")
		product = getArg(args, "--product", "all")
	)
	url := fmt.Sprintf("%s/api/historical?days=%s&product=%s", config.ServerURL, days, product)
	body, err := httpGet(config, url)
	if err != nil {
		fmt.Printf("Error requesting historical data: %v\n", err)
		os.Exit(1)
	}
	printJSON(body)
}

func handleGet(config CLIConfig, path string) {
	body, err := httpGet(config, config.ServerURL+path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printJSON(body)
}

func httpGet(config CLIConfig, url string) ([]byte, error) {
	if config.Verbose {
		fmt.Printf("GET %s\n", url)
	}
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func printJSON(body []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(buf.String())
}

func getArg(args []string, name, def string) string {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return def
}
