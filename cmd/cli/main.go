package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
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
	case "department":
		handleDepartment(args)
	case "personnel":
		handlePersonnel(args)
	case "token":
		handleToken(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// envelope matches the API's uniform response shape.
type envelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: personnelapi auth <register|login|logout|who>")
		return
	}

	switch args[0] {
	case "register":
		registerUser(args[1:])
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

func handleDepartment(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: personnelapi department <list|get|create|delete>")
		return
	}

	switch args[0] {
	case "list":
		listDepartments(args[1:])
	case "get":
		getOne("/departments", args[1:])
	case "create":
		createDepartment(args[1:])
	case "delete":
		deleteOne("/departments", args[1:])
	default:
		fmt.Printf("unknown department command: %s\n", args[0])
	}
}

func handlePersonnel(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: personnelapi personnel <list|get|create|delete>")
		return
	}

	switch args[0] {
	case "list":
		listPersonnels(args[1:])
	case "get":
		getOne("/personnels", args[1:])
	case "create":
		createPersonnel(args[1:])
	case "delete":
		deleteOne("/personnels", args[1:])
	default:
		fmt.Printf("unknown personnel command: %s\n", args[0])
	}
}

func handleToken(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: personnelapi token <list|create|revoke>")
		return
	}

	switch args[0] {
	case "list":
		listTokens()
	case "create":
		createToken(args[1:])
	case "revoke":
		deleteOne("/tokens", args[1:])
	default:
		fmt.Printf("unknown token command: %s\n", args[0])
	}
}

// Auth commands

func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *username == "" || *email == "" || *password == "" {
		fmt.Println("Error: username, email, and password are required")
		fs.PrintDefaults()
		return
	}

	env, status, err := post("/auth/register", map[string]string{
		"username": *username,
		"email":    *email,
		"password": *password,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusCreated {
		fmt.Printf("✗ Registration failed: %s\n", env.Message)
		return
	}
	fmt.Printf("✓ User registered: %s\n", *username)
}

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

	env, status, err := post("/auth/login", map[string]string{
		"username": *username,
		"password": *password,
		"device":   "cli",
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ Login failed: %s\n", env.Message)
		return
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil || result.Token == "" {
		fmt.Println("✗ Login response did not contain a token")
		return
	}
	if err := saveKey(result.Token); err != nil {
		fmt.Printf("Error saving key: %v\n", err)
		return
	}
	fmt.Printf("✓ Logged in as: %s\n", *username)
}

func logoutUser() {
	if key := loadKey(); key != "" {
		// Best effort; the local key is removed regardless.
		req, _ := http.NewRequest(http.MethodPost, apiURL()+"/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+key)
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
		}
	}
	os.Remove(keyFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	env, status, err := get("/")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ Request failed: %s\n", env.Message)
		return
	}

	var welcome struct {
		IsLogin bool `json:"isLogin"`
		User    *struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &welcome); err != nil || !welcome.IsLogin || welcome.User == nil {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in as: %s (%s)\n", welcome.User.Username, welcome.User.Role)
}

// Department commands

func listDepartments(args []string) {
	fs := flag.NewFlagSet("department list", flag.ExitOnError)
	queryString := fs.String("query", "", "raw query string, e.g. 'sort=name&page=2'")
	fs.Parse(args)

	path := "/departments"
	if *queryString != "" {
		path += "?" + *queryString
	}
	env, status, err := get(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ Request failed: %s\n", env.Message)
		return
	}

	var departments []struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		ManagerID *string `json:"managerId"`
	}
	if err := json.Unmarshal(env.Data, &departments); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMANAGER")
	for _, d := range departments {
		manager := "-"
		if d.ManagerID != nil {
			manager = *d.ManagerID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, manager)
	}
	w.Flush()
}

func createDepartment(args []string) {
	fs := flag.NewFlagSet("department create", flag.ExitOnError)
	name := fs.String("name", "", "department name")
	manager := fs.String("manager", "", "manager personnel id (optional)")
	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: name is required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"name": *name}
	if *manager != "" {
		payload["managerId"] = *manager
	}
	env, status, err := post("/departments", payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusCreated {
		fmt.Printf("✗ Create failed: %s\n", env.Message)
		return
	}
	fmt.Printf("✓ Department created: %s\n", *name)
}

// Personnel commands

func listPersonnels(args []string) {
	fs := flag.NewFlagSet("personnel list", flag.ExitOnError)
	queryString := fs.String("query", "", "raw query string, e.g. 'salary[gte]=50000&sort=-salary'")
	fs.Parse(args)

	path := "/personnels"
	if *queryString != "" {
		path += "?" + *queryString
	}
	env, status, err := get(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ Request failed: %s\n", env.Message)
		return
	}

	var personnels []struct {
		ID           string  `json:"id"`
		FirstName    string  `json:"firstName"`
		LastName     string  `json:"lastName"`
		Title        string  `json:"title"`
		Salary       float64 `json:"salary"`
		DepartmentID string  `json:"departmentId"`
	}
	if err := json.Unmarshal(env.Data, &personnels); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTITLE\tSALARY\tDEPARTMENT")
	for _, p := range personnels {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%.2f\t%s\n", p.ID, p.FirstName, p.LastName, p.Title, p.Salary, p.DepartmentID)
	}
	w.Flush()
}

func createPersonnel(args []string) {
	fs := flag.NewFlagSet("personnel create", flag.ExitOnError)
	firstName := fs.String("first", "", "first name")
	lastName := fs.String("last", "", "last name")
	title := fs.String("title", "", "job title")
	salary := fs.Float64("salary", 0, "salary")
	department := fs.String("department", "", "department id")
	fs.Parse(args)

	if *firstName == "" || *lastName == "" || *department == "" {
		fmt.Println("Error: first, last, and department are required")
		fs.PrintDefaults()
		return
	}

	env, status, err := post("/personnels", map[string]any{
		"firstName":    *firstName,
		"lastName":     *lastName,
		"title":        *title,
		"salary":       *salary,
		"departmentId": *department,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusCreated {
		fmt.Printf("✗ Create failed: %s\n", env.Message)
		return
	}
	fmt.Printf("✓ Personnel created: %s %s\n", *firstName, *lastName)
}

// Token commands

func listTokens() {
	env, status, err := get("/tokens")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ Request failed: %s\n", env.Message)
		return
	}

	var tokens []struct {
		ID        string  `json:"id"`
		Device    string  `json:"device"`
		IssuedAt  string  `json:"issuedAt"`
		ExpiresAt *string `json:"expiresAt"`
	}
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEVICE\tISSUED\tEXPIRES")
	for _, tok := range tokens {
		expires := "never"
		if tok.ExpiresAt != nil {
			expires = *tok.ExpiresAt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tok.ID, tok.Device, tok.IssuedAt, expires)
	}
	w.Flush()
}

func createToken(args []string) {
	fs := flag.NewFlagSet("token create", flag.ExitOnError)
	device := fs.String("device", "", "device label")
	fs.Parse(args)

	env, status, err := post("/tokens", map[string]string{"device": *device})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusCreated {
		fmt.Printf("✗ Create failed: %s\n", env.Message)
		return
	}

	var result struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		return
	}
	fmt.Printf("✓ Token issued: %s\n", result.ID)
	fmt.Printf("  Key (shown once): %s\n", result.Token)
}

// Shared helpers

func getOne(base string, args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage: personnelapi %s get <id>\n", base[1:len(base)-1])
		return
	}
	env, status, err := get(base + "/" + args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ Request failed: %s\n", env.Message)
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, env.Data, "", "  "); err != nil {
		fmt.Println(string(env.Data))
		return
	}
	fmt.Println(pretty.String())
}

func deleteOne(base string, args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage: personnelapi %s delete <id>\n", base[1:len(base)-1])
		return
	}
	req, err := http.NewRequest(http.MethodDelete, apiURL()+base+"/"+args[0], nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		var env envelope
		json.NewDecoder(resp.Body).Decode(&env)
		fmt.Printf("✗ Delete failed: %s\n", env.Message)
		return
	}
	fmt.Println("✓ Deleted")
}

func get(path string) (envelope, int, error) {
	req, err := http.NewRequest(http.MethodGet, apiURL()+path, nil)
	if err != nil {
		return envelope{}, 0, err
	}
	addAuthHeader(req)
	return doRequest(req)
}

func post(path string, payload any) (envelope, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return envelope{}, 0, err
	}
	req, err := http.NewRequest(http.MethodPost, apiURL()+path, bytes.NewReader(data))
	if err != nil {
		return envelope{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	return doRequest(req)
}

func doRequest(req *http.Request) (envelope, int, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return envelope{}, 0, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, resp.StatusCode, err
	}
	return env, resp.StatusCode, nil
}

func apiURL() string {
	if url := os.Getenv("PERSONNELAPI_URL"); url != "" {
		return url
	}
	return "http://localhost:8000"
}

func keyFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.personnelapi/key"
}

func saveKey(key string) error {
	home, _ := os.UserHomeDir()
	if err := os.MkdirAll(home+"/.personnelapi", 0700); err != nil {
		return err
	}
	return os.WriteFile(keyFile(), []byte(key), 0600)
}

func loadKey() string {
	data, _ := os.ReadFile(keyFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	if key := loadKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
}

func printUsage() {
	fmt.Print(`Personnel API CLI

Usage:
  personnelapi <command> [options]

Commands:
  auth        Authentication (register, login, logout, who)
  department  Department operations (list, get, create, delete)
  personnel   Personnel operations (list, get, create, delete)
  token       Bearer key management (list, create, revoke)
  help        Show this help message

Environment Variables:
  PERSONNELAPI_URL    API endpoint (default: http://localhost:8000)

Examples:
  personnelapi auth register -username alice -email alice@example.com -password secret123
  personnelapi auth login -username alice -password secret123
  personnelapi department list -query 'sort=name'
  personnelapi personnel list -query 'salary[gte]=50000&sort=-salary'
`)
}
