package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
)

var (
	app      = kingpin.New("taskmarket", "Task marketplace client")
	endpoint = app.Flag("endpoint", "Server endpoint").Envar("TASKMARKET_ENDPOINT").Default("http://localhost:3200").String()
	apiKey   = app.Flag("api-key", "API key").Envar("TASKMARKET_API_KEY").Required().String()
	account  = app.Flag("account", "Acting account id").Envar("TASKMARKET_ACCOUNT").String()

	// Task commands
	createCmd         = app.Command("create", "Create a new task")
	createTitle       = createCmd.Arg("title", "Task title").Required().String()
	createSpec        = createCmd.Flag("spec", "Task specification").String()
	createBudget      = createCmd.Flag("budget", "Escrowed budget").Required().Uint64()
	createDeadline    = createCmd.Flag("deadline", "Deadline (RFC3339)").Required().String()
	createAttachments = createCmd.Flag("attachments", "Attachments reference").String()
	createKeywords    = createCmd.Flag("keywords", "Search keywords").String()
	createOrg         = createCmd.Flag("org", "Organization id").String()

	updateCmd         = app.Command("update", "Update a task still in created status")
	updateID          = updateCmd.Arg("id", "Task ID").Required().String()
	updateTitle       = updateCmd.Flag("title", "Task title").Required().String()
	updateSpec        = updateCmd.Flag("spec", "Task specification").String()
	updateBudget      = updateCmd.Flag("budget", "Escrowed budget").Required().Uint64()
	updateDeadline    = updateCmd.Flag("deadline", "Deadline (RFC3339)").Required().String()
	updateAttachments = updateCmd.Flag("attachments", "Attachments reference").String()
	updateKeywords    = updateCmd.Flag("keywords", "Search keywords").String()
	updateOrg         = updateCmd.Flag("org", "Organization id").String()

	removeCmd = app.Command("remove", "Remove a task and release its escrow")
	removeID  = removeCmd.Arg("id", "Task ID").Required().String()

	startCmd = app.Command("start", "Volunteer for a task")
	startID  = startCmd.Arg("id", "Task ID").Required().String()

	completeCmd = app.Command("complete", "Mark a task you started as completed")
	completeID  = completeCmd.Arg("id", "Task ID").Required().String()

	acceptCmd = app.Command("accept", "Accept completed work and pay out the budget")
	acceptID  = acceptCmd.Arg("id", "Task ID").Required().String()

	rejectCmd      = app.Command("reject", "Send completed work back to the volunteer")
	rejectID       = rejectCmd.Arg("id", "Task ID").Required().String()
	rejectFeedback = rejectCmd.Flag("feedback", "Feedback for the volunteer").String()

	showCmd = app.Command("show", "Show task details")
	showID  = showCmd.Arg("id", "Task ID").Required().String()

	listCmd = app.Command("list", "List all tasks")

	ownedCmd     = app.Command("owned", "List task ids owned by an account")
	ownedAccount = ownedCmd.Arg("account", "Account id").Required().String()

	countCmd = app.Command("count", "Show the live task count")

	balanceCmd     = app.Command("balance", "Show an account's balance")
	balanceAccount = balanceCmd.Arg("account", "Account id").Required().String()

	// Profile commands
	profileCmd = app.Command("profile", "Profile management commands")

	profileCreateCmd       = profileCmd.Command("create", "Register a profile for the acting account")
	profileCreateName      = profileCreateCmd.Arg("name", "Display name").Required().String()
	profileCreateInterests = profileCreateCmd.Flag("interest", "Interest keyword (repeatable)").Strings()

	profileShowCmd     = profileCmd.Command("show", "Show a profile")
	profileShowAccount = profileShowCmd.Arg("account", "Account id").Required().String()

	// Organization commands
	orgCmd = app.Command("org", "Organization management commands")

	orgCreateCmd  = orgCmd.Command("create", "Create an organization")
	orgCreateName = orgCreateCmd.Arg("name", "Organization name").Required().String()
	orgCreateDesc = orgCreateCmd.Flag("description", "Description").String()

	orgListCmd = orgCmd.Command("list", "List organizations")

	orgShowCmd = orgCmd.Command("show", "Show an organization")
	orgShowID  = orgShowCmd.Arg("id", "Organization ID").Required().String()

	orgDeleteCmd = orgCmd.Command("delete", "Delete an organization")
	orgDeleteID  = orgDeleteCmd.Arg("id", "Organization ID").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	ctx := context.Background()
	client := NewClient(*endpoint, *apiKey, *account)

	var err error
	switch command {
	case createCmd.FullCommand():
		err = handleCreate(ctx, client)
	case updateCmd.FullCommand():
		err = handleUpdate(ctx, client)
	case removeCmd.FullCommand():
		err = client.delete(ctx, "/api/tasks/"+*removeID)
		if err == nil {
			color.Green("removed %s", *removeID)
		}
	case startCmd.FullCommand():
		err = handleTransition(ctx, client, *startID, "start")
	case completeCmd.FullCommand():
		err = handleTransition(ctx, client, *completeID, "complete")
	case acceptCmd.FullCommand():
		err = client.post(ctx, "/api/tasks/"+*acceptID+"/accept", struct{}{}, nil)
		if err == nil {
			color.Green("accepted %s", *acceptID)
		}
	case rejectCmd.FullCommand():
		err = handleReject(ctx, client)
	case showCmd.FullCommand():
		err = handleShow(ctx, client)
	case listCmd.FullCommand():
		err = handleList(ctx, client)
	case ownedCmd.FullCommand():
		err = handleOwned(ctx, client)
	case countCmd.FullCommand():
		err = handleCount(ctx, client)
	case balanceCmd.FullCommand():
		err = handleBalance(ctx, client)
	case profileCreateCmd.FullCommand():
		err = handleProfileCreate(ctx, client)
	case profileShowCmd.FullCommand():
		err = handleProfileShow(ctx, client)
	case orgCreateCmd.FullCommand():
		err = handleOrgCreate(ctx, client)
	case orgListCmd.FullCommand():
		err = handleOrgList(ctx, client)
	case orgShowCmd.FullCommand():
		err = handleOrgShow(ctx, client)
	case orgDeleteCmd.FullCommand():
		err = client.delete(ctx, "/api/organizations/"+*orgDeleteID)
		if err == nil {
			color.Green("deleted organization %s", *orgDeleteID)
		}
	}
	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

type taskJSON struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Specification string `json:"specification"`
	Initiator     string `json:"initiator"`
	Volunteer     string `json:"volunteer"`
	CurrentOwner  string `json:"current_owner"`
	Status        string `json:"status"`
	Budget        uint64 `json:"budget"`
	Deadline      int64  `json:"deadline"`
	Attachments   string `json:"attachments"`
	Keywords      string `json:"keywords"`
	Feedback      string `json:"feedback"`
	Organization  string `json:"organization"`
	CreatedAt     uint64 `json:"created_at"`
	UpdatedAt     uint64 `json:"updated_at"`
	CompletedAt   uint64 `json:"completed_at"`
}

type taskEnvelope struct {
	Task *taskJSON `json:"task"`
}

type taskPayload struct {
	Title         string `json:"title"`
	Specification string `json:"specification"`
	Budget        uint64 `json:"budget"`
	Deadline      int64  `json:"deadline"`
	Attachments   string `json:"attachments,omitempty"`
	Keywords      string `json:"keywords,omitempty"`
	Organization  string `json:"organization,omitempty"`
}

func parseDeadline(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("invalid deadline %q: expected RFC3339 timestamp", s)
	}
	return t.UnixMilli(), nil
}

func handleCreate(ctx context.Context, client *Client) error {
	deadline, err := parseDeadline(*createDeadline)
	if err != nil {
		return err
	}
	var resp taskEnvelope
	if err := client.post(ctx, "/api/tasks", &taskPayload{
		Title:         *createTitle,
		Specification: *createSpec,
		Budget:        *createBudget,
		Deadline:      deadline,
		Attachments:   *createAttachments,
		Keywords:      *createKeywords,
		Organization:  *createOrg,
	}, &resp); err != nil {
		return err
	}
	color.Green("created %s", resp.Task.ID)
	printTask(resp.Task)
	return nil
}

func handleUpdate(ctx context.Context, client *Client) error {
	deadline, err := parseDeadline(*updateDeadline)
	if err != nil {
		return err
	}
	var resp taskEnvelope
	if err := client.put(ctx, "/api/tasks/"+*updateID, &taskPayload{
		Title:         *updateTitle,
		Specification: *updateSpec,
		Budget:        *updateBudget,
		Deadline:      deadline,
		Attachments:   *updateAttachments,
		Keywords:      *updateKeywords,
		Organization:  *updateOrg,
	}, &resp); err != nil {
		return err
	}
	color.Green("updated %s", resp.Task.ID)
	printTask(resp.Task)
	return nil
}

func handleTransition(ctx context.Context, client *Client, id, action string) error {
	var resp taskEnvelope
	if err := client.post(ctx, "/api/tasks/"+id+"/"+action, struct{}{}, &resp); err != nil {
		return err
	}
	printTask(resp.Task)
	return nil
}

func handleReject(ctx context.Context, client *Client) error {
	var resp taskEnvelope
	if err := client.post(ctx, "/api/tasks/"+*rejectID+"/reject", struct {
		Feedback string `json:"feedback"`
	}{Feedback: *rejectFeedback}, &resp); err != nil {
		return err
	}
	color.Yellow("rejected %s", resp.Task.ID)
	printTask(resp.Task)
	return nil
}

func handleShow(ctx context.Context, client *Client) error {
	var resp taskEnvelope
	if err := client.get(ctx, "/api/tasks/"+*showID, &resp); err != nil {
		return err
	}
	printTask(resp.Task)
	return nil
}

func handleList(ctx context.Context, client *Client) error {
	var resp struct {
		Tasks []*taskJSON `json:"tasks"`
	}
	if err := client.get(ctx, "/api/tasks", &resp); err != nil {
		return err
	}
	if len(resp.Tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}
	for _, t := range resp.Tasks {
		fmt.Printf("%s  %-12s  %8d  %s\n", shortID(t.ID), statusColor(t.Status), t.Budget, t.Title)
	}
	return nil
}

func handleOwned(ctx context.Context, client *Client) error {
	var resp struct {
		TaskIDs []string `json:"task_ids"`
	}
	if err := client.get(ctx, "/api/accounts/"+*ownedAccount+"/tasks", &resp); err != nil {
		return err
	}
	for _, id := range resp.TaskIDs {
		fmt.Println(id)
	}
	return nil
}

func handleCount(ctx context.Context, client *Client) error {
	var resp struct {
		Count uint64 `json:"count"`
	}
	if err := client.get(ctx, "/api/tasks/count", &resp); err != nil {
		return err
	}
	fmt.Println(resp.Count)
	return nil
}

func handleBalance(ctx context.Context, client *Client) error {
	var resp struct {
		Account  string `json:"account"`
		Free     uint64 `json:"free"`
		Reserved uint64 `json:"reserved"`
	}
	if err := client.get(ctx, "/api/accounts/"+*balanceAccount+"/balance", &resp); err != nil {
		return err
	}
	fmt.Printf("account:  %s\n", resp.Account)
	fmt.Printf("free:     %d\n", resp.Free)
	fmt.Printf("reserved: %d\n", resp.Reserved)
	return nil
}

type profileJSON struct {
	Account        string   `json:"account"`
	Name           string   `json:"name"`
	Interests      []string `json:"interests"`
	Reputation     uint32   `json:"reputation"`
	CompletedTasks []string `json:"completed_tasks"`
}

func handleProfileCreate(ctx context.Context, client *Client) error {
	var resp struct {
		Profile *profileJSON `json:"profile"`
	}
	if err := client.post(ctx, "/api/profiles", struct {
		Name      string   `json:"name"`
		Interests []string `json:"interests"`
	}{Name: *profileCreateName, Interests: *profileCreateInterests}, &resp); err != nil {
		return err
	}
	color.Green("profile registered for %s", resp.Profile.Account)
	return nil
}

func handleProfileShow(ctx context.Context, client *Client) error {
	var resp struct {
		Profile *profileJSON `json:"profile"`
	}
	if err := client.get(ctx, "/api/profiles/"+*profileShowAccount, &resp); err != nil {
		return err
	}
	p := resp.Profile
	fmt.Printf("account:    %s\n", p.Account)
	fmt.Printf("name:       %s\n", p.Name)
	fmt.Printf("reputation: %d\n", p.Reputation)
	if len(p.Interests) > 0 {
		fmt.Printf("interests:  %v\n", p.Interests)
	}
	if len(p.CompletedTasks) > 0 {
		fmt.Printf("completed:  %d tasks\n", len(p.CompletedTasks))
	}
	return nil
}

type organizationJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func handleOrgCreate(ctx context.Context, client *Client) error {
	var resp struct {
		Organization *organizationJSON `json:"organization"`
	}
	if err := client.post(ctx, "/api/organizations", struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}{Name: *orgCreateName, Description: *orgCreateDesc}, &resp); err != nil {
		return err
	}
	color.Green("created organization %s", resp.Organization.ID)
	return nil
}

func handleOrgList(ctx context.Context, client *Client) error {
	var resp struct {
		Organizations []*organizationJSON `json:"organizations"`
	}
	if err := client.get(ctx, "/api/organizations", &resp); err != nil {
		return err
	}
	for _, org := range resp.Organizations {
		fmt.Printf("%s  %s\n", org.ID, org.Name)
	}
	return nil
}

func handleOrgShow(ctx context.Context, client *Client) error {
	var resp struct {
		Organization *organizationJSON `json:"organization"`
	}
	if err := client.get(ctx, "/api/organizations/"+*orgShowID, &resp); err != nil {
		return err
	}
	org := resp.Organization
	fmt.Printf("id:          %s\n", org.ID)
	fmt.Printf("name:        %s\n", org.Name)
	if org.Description != "" {
		fmt.Printf("description: %s\n", org.Description)
	}
	return nil
}

func printTask(t *taskJSON) {
	fmt.Printf("id:            %s\n", t.ID)
	fmt.Printf("title:         %s\n", t.Title)
	fmt.Printf("status:        %s\n", statusColor(t.Status))
	fmt.Printf("initiator:     %s\n", t.Initiator)
	fmt.Printf("volunteer:     %s\n", t.Volunteer)
	fmt.Printf("current owner: %s\n", t.CurrentOwner)
	fmt.Printf("budget:        %d\n", t.Budget)
	fmt.Printf("deadline:      %s\n", time.UnixMilli(t.Deadline).Format(time.RFC3339))
	if t.Specification != "" {
		fmt.Printf("specification: %s\n", t.Specification)
	}
	if t.Keywords != "" {
		fmt.Printf("keywords:      %s\n", t.Keywords)
	}
	if t.Organization != "" {
		fmt.Printf("organization:  %s\n", t.Organization)
	}
	if t.Feedback != "" {
		fmt.Printf("feedback:      %s\n", t.Feedback)
	}
}

func statusColor(status string) string {
	switch status {
	case "created":
		return color.CyanString(status)
	case "in_progress":
		return color.YellowString(status)
	case "completed":
		return color.GreenString(status)
	default:
		return status
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
