// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"business-workers/pkg/registry"
)

const defaultPath = "configs/activity-registry.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("set-status", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)

	addPath := addCmd.String("path", defaultPath, "Path to registry file")
	idAdd := addCmd.String("id", "", "Activity ID (e.g., activate-business)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Activate Business)")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "", "Category (e.g., activation)")
	taskType := addCmd.String("taskType", "", "Zeebe task type; defaults to the ID")
	timeout := addCmd.String("timeout", "10s", "Job timeout")

	statusPath := statusCmd.String("path", defaultPath, "Path to registry file")
	idStatus := statusCmd.String("id", "", "Activity ID to update")
	status := statusCmd.String("status", "", "implemented or planned")

	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")

	checkPath := checkCmd.String("path", defaultPath, "Path to registry file")
	tasks := checkCmd.String("tasks", "", "Comma-separated task types the deployment will start")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *category == "" {
			fmt.Println("Error: id, displayName and category are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		tt := *taskType
		if tt == "" {
			tt = *idAdd
		}
		err = addActivity(*addPath, registry.Activity{
			ID:                   *idAdd,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              "1.0.0",
			TaskType:             tt,
			ImplementationStatus: registry.StatusPlanned,
			ErrorCodes:           []string{},
			Timeout:              *timeout,
			Workflows:            []string{},
			Tags:                 []string{},
		})
		if err == nil {
			fmt.Printf("Added planned activity: %s\n", *idAdd)
		}

	case "set-status":
		statusCmd.Parse(os.Args[2:])
		err = setStatus(*statusPath, *idStatus, *status)
		if err == nil {
			fmt.Printf("Activity %s is now %s\n", *idStatus, *status)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		var reg *registry.ActivityRegistry
		if reg, err = registry.LoadRegistry(*validatePath); err == nil {
			if err = reg.CheckSchemas(); err == nil {
				fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
			}
		}

	case "check":
		checkCmd.Parse(os.Args[2:])
		err = checkTasks(*checkPath, splitTasks(*tasks))
		if err == nil {
			fmt.Println("All task types are registered as implemented.")
		}

	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func addActivity(path string, activity registry.Activity) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
	}

	for _, existing := range reg.Activities {
		if existing.ID == activity.ID {
			return fmt.Errorf("activity with ID %s already exists", activity.ID)
		}
	}

	reg.Activities = append(reg.Activities, activity)
	if err := reg.Validate(); err != nil {
		return err
	}
	return reg.Save(path, time.Now())
}

func setStatus(path, id, status string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	if err := reg.SetStatus(id, status); err != nil {
		return err
	}
	return reg.Save(path, time.Now())
}

func checkTasks(path string, taskTypes []string) error {
	if len(taskTypes) == 0 {
		return fmt.Errorf("no task types given")
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	if missing := reg.Unregistered(taskTypes); len(missing) > 0 {
		return fmt.Errorf("not registered as implemented: %s", strings.Join(missing, ", "))
	}
	return nil
}

func splitTasks(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add         Add a planned activity to the registry
  set-status  Mark an activity implemented or planned
  validate    Validate the registry file and compile its schemas
  check       Verify task types are registered as implemented
  help        Show this help message

Examples:
  registry-updater add -id resolve-business-qr -displayName "Resolve Business QR Code" -category directory
  registry-updater set-status -id resolve-business-qr -status implemented
  registry-updater check -tasks activate-business,send-activation-notice

Use 'registry-updater <command> -h' for more information about a command.
` + "\n")
}
