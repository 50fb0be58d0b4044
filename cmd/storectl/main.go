// storectl is a CLI tool for exercising storefront flows.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	storectl gate -store URL -visitor ID [-lat N -lon N]
//	storectl products -store URL
//	storectl services -store URL [-category NAME]
//	storectl cart -store URL -visitor ID [-add ID] [-rm ID] [-clear]
//	storectl signup -store URL -visitor ID -email ADDR -password PASS
//	storectl signin -store URL -visitor ID -email ADDR -password PASS
//	storectl checkout -store URL -visitor ID [-proceed] [-pay]
//
// Examples:
//
//	V=$(uuidgen)
//	storectl gate -store http://localhost:8080 -visitor $V
//	storectl cart -store http://localhost:8080 -visitor $V -add 1
//	storectl signin -store http://localhost:8080 -visitor $V -email me@example.com -password secret
//	storectl checkout -store http://localhost:8080 -visitor $V -proceed -pay
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

var client = &http.Client{
	Timeout: 30 * time.Second,
	// Payment-return redirects are followed manually so the Location
	// header stays visible
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// Global flags (apply to all commands)
var (
	storeURL  string
	visitorID string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorBlue, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "gate":
		runGate(args)
	case "products":
		runProducts(args)
	case "services":
		runServices(args)
	case "cart":
		runCart(args)
	case "signup":
		runSignUp(args)
	case "signin":
		runSignIn(args)
	case "signout":
		runSignOut(args)
	case "checkout":
		runCheckout(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `storectl - storefront flow test tool

Usage:
  storectl <command> [options]

Commands:
  gate      Pass the access gate with a synthetic device snapshot
  products  List the fixed product line
  services  List generated server tiers
  cart      Show or modify the cart
  signup    Create an account
  signin    Sign in (email must be verified)
  signout   Drop the session
  checkout  Show checkout state, proceed, or start payment

Examples:
  # Pass the gate, then fill a cart
  V=$(uuidgen)
  storectl gate -store http://localhost:8080 -visitor $V
  storectl cart -store http://localhost:8080 -visitor $V -add 1
  storectl cart -store http://localhost:8080 -visitor $V -add cloud-pro-16

  # Sign in and pay
  storectl signin -store http://localhost:8080 -visitor $V -email me@example.com -password secret
  storectl checkout -store http://localhost:8080 -visitor $V -proceed -pay

Run 'storectl <command> -h' for command-specific options.
`)
}

// =============================================================================
// GATE COMMAND
// =============================================================================

func runGate(args []string) {
	fs := newFlagSet("gate", "storectl gate [options]")
	lat := fs.Float64("lat", 45.4215, "Reported GPS latitude")
	lon := fs.Float64("lon", -75.6972, "Reported GPS longitude")
	parseCommon(fs, args)

	reqBody := map[string]interface{}{
		"user_agent":        "storectl/1.0",
		"language":          "en-US",
		"platform":          "cli",
		"cookies_enabled":   true,
		"screen_resolution": "n/a",
		"location": map[string]interface{}{
			"latitude":  *lat,
			"longitude": *lon,
			"accuracy":  10.0,
		},
	}

	resp, err := doRequest("POST", "/api/gate", reqBody)
	if err != nil {
		fatal("Gate attempt failed: %v", err)
	}

	status, _ := resp["status"].(string)
	if quiet {
		fmt.Println(status)
	} else {
		printSuccess("Access %s", status)
		if count, ok := resp["visit_count"].(float64); ok {
			fmt.Printf("  Visit: %s#%d%s\n", colorCyan, int(count), colorReset)
		}
	}
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

func runProducts(args []string) {
	fs := newFlagSet("products", "storectl products [options]")
	parseCommon(fs, args)

	resp, err := doRequest("GET", "/api/products", nil)
	if err != nil {
		fatal("Failed to list products: %v", err)
	}

	products, _ := resp["products"].([]interface{})
	if quiet {
		for _, p := range products {
			if m, ok := p.(map[string]interface{}); ok {
				fmt.Println(m["id"])
			}
		}
		return
	}

	printSuccess("%d products", len(products))
	for _, p := range products {
		if m, ok := p.(map[string]interface{}); ok {
			fmt.Printf("  %s%v%s  %v (%s)\n",
				colorCyan, m["id"], colorReset, m["name"], formatPrice(m["price"]))
		}
	}
}

func runServices(args []string) {
	fs := newFlagSet("services", "storectl services [options]")
	category := fs.String("category", "", "Filter by category: cloud, gaming, streaming")
	parseCommon(fs, args)

	path := "/api/services"
	if *category != "" {
		path += "?category=" + url.QueryEscape(*category)
	}

	resp, err := doRequest("GET", path, nil)
	if err != nil {
		fatal("Failed to list services: %v", err)
	}

	services, _ := resp["services"].([]interface{})
	if quiet {
		for _, s := range services {
			if m, ok := s.(map[string]interface{}); ok {
				fmt.Println(m["id"])
			}
		}
		return
	}

	printSuccess("%d services", len(services))
	for _, s := range services {
		if m, ok := s.(map[string]interface{}); ok {
			fmt.Printf("  %s%v%s  %v (%s)\n",
				colorCyan, m["id"], colorReset, m["name"], formatPrice(m["price"]))
		}
	}
}

// =============================================================================
// CART COMMAND
// =============================================================================

func runCart(args []string) {
	fs := newFlagSet("cart", "storectl cart [options]")
	addID := fs.String("add", "", "Add a product or tier by ID")
	rmID := fs.String("rm", "", "Remove an item by ID")
	clear := fs.Bool("clear", false, "Empty the cart")
	parseCommon(fs, args)

	var resp map[string]interface{}
	var err error

	switch {
	case *addID != "":
		resp, err = doRequest("POST", "/api/cart/items", map[string]string{"id": *addID})
	case *rmID != "":
		resp, err = doRequest("DELETE", "/api/cart/items/"+url.PathEscape(*rmID), nil)
	case *clear:
		_, err = doRequest("DELETE", "/api/cart", nil)
		if err == nil {
			printSuccess("Cart cleared")
			return
		}
	default:
		resp, err = doRequest("GET", "/api/cart", nil)
	}
	if err != nil {
		fatal("Cart operation failed: %v", err)
	}

	items, _ := resp["items"].([]interface{})
	if quiet {
		fmt.Println(len(items))
		return
	}

	printSuccess("Cart: %d item(s), total %s", len(items), formatPrice(resp["total"]))
	for _, it := range items {
		if m, ok := it.(map[string]interface{}); ok {
			fmt.Printf("  %s%v%s  %v (%s)\n",
				colorCyan, m["id"], colorReset, m["name"], formatPrice(m["price"]))
		}
	}
}

// =============================================================================
// AUTH COMMANDS
// =============================================================================

func runSignUp(args []string) {
	fs := newFlagSet("signup", "storectl signup -email ADDR -password PASS [options]")
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	parseCommon(fs, args)

	if *email == "" || *password == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/auth/signup",
		map[string]string{"email": *email, "password": *password})
	if err != nil {
		fatal("Sign-up failed: %v", err)
	}

	if msg, ok := resp["message"].(string); ok && !quiet {
		printSuccess("%s", msg)
	}
}

func runSignIn(args []string) {
	fs := newFlagSet("signin", "storectl signin -email ADDR -password PASS [options]")
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	parseCommon(fs, args)

	if *email == "" || *password == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/auth/signin",
		map[string]string{"email": *email, "password": *password})
	if err != nil {
		fatal("Sign-in failed: %v", err)
	}

	session, _ := resp["session"].(map[string]interface{})
	if quiet {
		fmt.Println(session["email"])
	} else {
		printSuccess("Signed in as %v", session["email"])
	}
}

func runSignOut(args []string) {
	fs := newFlagSet("signout", "storectl signout [options]")
	parseCommon(fs, args)

	if _, err := doRequest("POST", "/api/auth/signout", nil); err != nil {
		fatal("Sign-out failed: %v", err)
	}
	printSuccess("Signed out")
}

// =============================================================================
// CHECKOUT COMMAND
// =============================================================================

func runCheckout(args []string) {
	fs := newFlagSet("checkout", "storectl checkout [options]")
	proceed := fs.Bool("proceed", false, "Advance from the cart step")
	pay := fs.Bool("pay", false, "Create the payment and print the gateway URL")
	parseCommon(fs, args)

	if *proceed {
		resp, err := doRequest("POST", "/api/checkout/proceed", nil)
		if err != nil {
			fatal("Proceed failed: %v", err)
		}
		printSuccess("Step: %v", resp["step"])
	}

	if *pay {
		resp, err := doRequest("POST", "/api/checkout/pay", nil)
		if err != nil {
			fatal("Payment failed: %v", err)
		}
		paymentURL, _ := resp["payment_url"].(string)
		if quiet {
			fmt.Println(paymentURL)
		} else {
			printSuccess("Payment session created")
			fmt.Printf("  Order ID: %s%v%s\n", colorGreen, resp["order_id"], colorReset)
			fmt.Printf("  Pay at:   %s%s%s\n", colorBlue, paymentURL, colorReset)
		}
	}

	if !*proceed && !*pay {
		resp, err := doRequest("GET", "/api/checkout", nil)
		if err != nil {
			fatal("Failed to get checkout state: %v", err)
		}
		state, _ := resp["state"].(map[string]interface{})
		if quiet {
			fmt.Println(state["step"])
			return
		}
		printSuccess("Checkout step: %v", state["step"])
		if orderID, ok := state["order_id"].(string); ok && orderID != "" {
			fmt.Printf("  Order ID: %s%s%s\n", colorCyan, orderID, colorReset)
		}
	}
}

// =============================================================================
// FLAG HELPERS
// =============================================================================

func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseCommon registers the shared flags, parses, and applies global state.
func parseCommon(fs *flag.FlagSet, args []string) {
	fs.StringVar(&storeURL, "store", "http://localhost:8080", "Storefront base URL")
	fs.StringVar(&visitorID, "visitor", "", "Visitor ID cookie value (required for stateful commands)")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
	fs.Parse(args)

	if noColor {
		disableColors()
	}
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	reqURL := strings.TrimSuffix(storeURL, "/") + path
	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Visitor identity rides on a cookie, same as browser clients
	if visitorID != "" {
		req.AddCookie(&http.Cookie{Name: "visitor_id", Value: visitorID})
	}

	if !quiet {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if !quiet {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return map[string]interface{}{}, nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return result, nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	if len(data) == 0 {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func formatPrice(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("$%.2f", f)
	}
	return fmt.Sprintf("%v", v)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
