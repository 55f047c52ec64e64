// fsctl is a thin client for the filestore API: it uploads, lists and
// deletes files over HTTP and keeps the server address in a small local
// config file.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/abylay/filestore/internal/cliconfig"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "upload":
		err = runUpload(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "fsctl: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fsctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: fsctl <command> [flags]

Commands:
  upload <path>   upload a file
  delete <name>   delete a file (soft by default, -permanent for hard)
  list            list stored files
  config          set, show or clear the server address`)
}

func apiURL() (string, error) {
	cfg, err := cliconfig.Load()
	if err != nil {
		return "", err
	}
	return cfg.BaseURL(), nil
}

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	name := fs.String("name", "", "name to store the file as (defaults to the file's base name)")
	destination := fs.String("destination", "", "logical directory to store the file under")
	tags := fs.String("tags", "", "comma-separated tags")
	description := fs.String("description", "", "file description")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("upload expects exactly one file path")
	}
	path := fs.Arg(0)
	if *name == "" {
		*name = filepath.Base(path)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := part.Write(payload); err != nil {
		return err
	}
	_ = writer.WriteField("destination", *destination)
	_ = writer.WriteField("tags", *tags)
	_ = writer.WriteField("description", *description)
	if err := writer.Close(); err != nil {
		return err
	}

	base, err := apiURL()
	if err != nil {
		return err
	}

	resp, err := http.Post(base+"/v1/file/"+url.PathEscape(*name), writer.FormDataContentType(), body)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	destination := fs.String("destination", "", "logical directory the file lives in")
	permanent := fs.Bool("permanent", false, "remove the blob and the record irreversibly")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("delete expects exactly one file name")
	}
	name := fs.Arg(0)

	base, err := apiURL()
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("destination", *destination)
	query.Set("permanent", strconv.FormatBool(*permanent))

	req, err := http.NewRequest(http.MethodDelete, base+"/v1/file/"+url.PathEscape(name)+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	byName := fs.Bool("order-by-name", false, "sort by name (a -> z)")
	bySize := fs.Bool("order-by-size", false, "sort by size (smallest first)")
	byUpdated := fs.Bool("order-by-updated-at", false, "sort by date (recently updated first)")
	destination := fs.String("destination", "", "only list this destination")
	tag := fs.String("tag", "", "only list files carrying this tag")
	verbose := fs.Bool("verbose", false, "include version and storage info")
	includeDeleted := fs.Bool("include-deleted", false, "include soft-deleted files")
	fs.Parse(args)

	base, err := apiURL()
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("order_by_name", strconv.FormatBool(*byName))
	query.Set("order_by_size", strconv.FormatBool(*bySize))
	query.Set("order_by_updated_at", strconv.FormatBool(*byUpdated))
	query.Set("destination", *destination)
	query.Set("tag", *tag)
	query.Set("verbose", strconv.FormatBool(*verbose))
	query.Set("include_deleted", strconv.FormatBool(*includeDeleted))

	resp, err := http.Get(base + "/v1/files?" + query.Encode())
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func runConfig(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("config expects set, show or clear")
	}

	switch args[0] {
	case "set":
		fs := flag.NewFlagSet("config set", flag.ExitOnError)
		apiURL := fs.String("api-url", "", "full API base URL (wins over host/port)")
		host := fs.String("host", "", "server host")
		port := fs.Int("port", 0, "server port")
		fs.Parse(args[1:])

		if *apiURL == "" && *host == "" {
			return fmt.Errorf("config set needs -api-url or -host")
		}
		return cliconfig.Save(cliconfig.Config{APIURL: *apiURL, Host: *host, Port: *port})
	case "show":
		cfg, err := cliconfig.Load()
		if err != nil {
			return err
		}
		fmt.Println(cfg.BaseURL())
		return nil
	case "clear":
		return cliconfig.Clear()
	default:
		return fmt.Errorf("unknown config subcommand %q", args[0])
	}
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
