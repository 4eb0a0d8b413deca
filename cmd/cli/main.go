package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "member":
		handleMember(args)
	case "history":
		handleHistory(args)
	case "fees":
		handleFees(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: gymd auth <login|logout|who>")
		return
	}

	switch args[0] {
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleMember(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: gymd member <list|add|delete|restore|receipt>")
		return
	}

	switch args[0] {
	case "list":
		listMembers()
	case "add":
		addMember(args[1:])
	case "delete":
		deleteMember(args[1:])
	case "restore":
		restoreMember(args[1:])
	case "receipt":
		downloadReceipt(args[1:])
	default:
		fmt.Printf("unknown member command: %s\n", args[0])
	}
}

func handleHistory(args []string) {
	if len(args) < 1 {
		listHistory(nil)
		return
	}

	switch args[0] {
	case "list":
		listHistory(args[1:])
	case "prune":
		pruneHistory(args[1:])
	default:
		fmt.Printf("unknown history command: %s\n", args[0])
	}
}

func handleFees(args []string) {
	if len(args) < 1 {
		listFees()
		return
	}

	switch args[0] {
	case "list":
		listFees()
	case "add":
		addFeePlan(args[1:])
	case "delete":
		deleteFeePlan(args[1:])
	default:
		fmt.Printf("unknown fees command: %s\n", args[0])
	}
}

// Auth commands
func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"username": *username, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *username)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/auth/profile", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Println("Not logged in")
		return
	}
	var user map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&user)
	fmt.Printf("✓ Logged in as %v (%v)\n", user["username"], user["role"])
}

// Member commands
func listMembers() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/members", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		printError(resp)
		return
	}
	var members []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&members)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tPLAN\tDUE\tEXPIRES")
	for _, m := range members {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n",
			m["id"], m["name"], m["phone"], m["duration"], m["due"], m["expiryDate"])
	}
	w.Flush()
}

func addMember(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "member name")
	phone := fs.String("phone", "", "phone number")
	email := fs.String("email", "", "email address (optional)")
	sex := fs.String("sex", "", "Male or Female")
	duration := fs.String("duration", "", `plan duration ("1 Month", "3 Months", "6 Months", "1 Year")`)
	paid := fs.Float64("paid", 0, "amount paid")
	due := fs.Float64("due", 0, "amount due")
	fs.Parse(args)

	if *name == "" || *phone == "" {
		fmt.Println("Error: name and phone are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"name":       *name,
		"phone":      *phone,
		"email":      *email,
		"sex":        *sex,
		"duration":   *duration,
		"amountPaid": *paid,
		"due":        *due,
	}
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/members", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		printError(resp)
		return
	}
	var member map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&member)
	fmt.Printf("✓ Member registered: %v (id %v, expires %v)\n", member["name"], member["id"], member["expiryDate"])
}

func deleteMember(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: gymd member delete <member-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/members/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		printError(resp)
		return
	}
	fmt.Println("✓ Member deleted (snapshot kept on the history log)")
}

func restoreMember(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: gymd member restore <history-entry-id>")
		return
	}

	req, _ := http.NewRequest("POST", getAPIURL()+"/members/restore/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		printError(resp)
		return
	}
	var member map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&member)
	fmt.Printf("✓ Member restored: %v (new id %v)\n", member["name"], member["id"])
}

func downloadReceipt(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: gymd member receipt <member-id>")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/members/"+args[0]+"/receipt", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		printError(resp)
		return
	}

	filename := "receipt-" + args[0] + ".pdf"
	out, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer out.Close()
	io.Copy(out, resp.Body)
	fmt.Printf("✓ Receipt saved to %s\n", filename)
}

// History commands
func listHistory(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("limit", 50, "entries per page")
	offset := fs.Int("offset", 0, "page offset")
	fs.Parse(args)

	url := fmt.Sprintf("%s/history?limit=%d&offset=%d", getAPIURL(), *limit, *offset)
	req, _ := http.NewRequest("GET", url, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		printError(resp)
		return
	}
	var entries []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&entries)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTION\tMEMBER\tBY\tAT")
	for _, e := range entries {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			e["id"], e["action"], e["memberId"], e["performer"], e["createdAt"])
	}
	w.Flush()
}

func pruneHistory(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: gymd history prune <entry-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/history/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		printError(resp)
		return
	}
	fmt.Println("✓ History entry pruned")
}

// Fee plan commands
func listFees() {
	resp, err := http.Get(getAPIURL() + "/fees")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var plans []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&plans)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLAN\tAMOUNT\tOFFER")
	for _, p := range plans {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", p["id"], p["planName"], p["amount"], p["offer"])
	}
	w.Flush()
}

func addFeePlan(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "plan name")
	amount := fs.Float64("amount", 0, "plan price")
	description := fs.String("description", "", "plan description")
	offer := fs.String("offer", "", "current offer text")
	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: name is required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"planName":    *name,
		"amount":      *amount,
		"description": *description,
		"offer":       *offer,
	}
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/fees", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		printError(resp)
		return
	}
	fmt.Printf("✓ Fee plan created: %s\n", *name)
}

func deleteFeePlan(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: gymd fees delete <plan-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/fees/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		printError(resp)
		return
	}
	fmt.Println("✓ Fee plan deleted")
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("GYMD_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.gymd/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.gymd", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	if token := loadToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printError(resp *http.Response) {
	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	fmt.Printf("✗ Request failed (%d): %v\n", resp.StatusCode, result["error"])
}

func printUsage() {
	fmt.Print(`gymd CLI

Usage:
  gymd <command> [options]

Commands:
  auth     Authentication (login, logout, who)
  member   Member operations (list, add, delete, restore, receipt)
  history  Member history log (list, prune) - admin access required
  fees     Fee plans (list, add, delete)
  help     Show this help message

Environment Variables:
  GYMD_API    API endpoint (default: http://localhost:8080/api)

Examples:
  gymd auth login -username admin -password secret
  gymd member add -name "Ana Lima" -phone 555-0100 -duration "1 Month" -paid 1000
  gymd member list
  gymd history list -limit 20
`)
}
