package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tuxkal/drainpipe/internal/creds"
	"github.com/tuxkal/drainpipe/internal/output"
	"github.com/tuxkal/drainpipe/internal/scheduler"
	"github.com/tuxkal/drainpipe/internal/utils"
)

var (
	nameOverride    string
	username        string
	apikey          string
	storeCredential bool
	awsProfile      string
	workers         int
	timeout         time.Duration
	kaTimeout       time.Duration
	userAgent       string
	proxyURL        string
	proxyUsername   string
	proxyPassword   string
	headers         []string
	debug           bool
)

var DrainpipeVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "drainpipe [SOURCE...]",
	Short:   "Drainpipe streams remote or local files straight into pixeldrain without touching disk",
	Version: DrainpipeVersion,
	Args:    cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		if storeCredential {
			if username == "" || apikey == "" {
				output.PrintError("Both --username and --apikey are required to store credentials")
				os.Exit(1)
			}
			path, err := creds.DefaultPath()
			if err == nil {
				err = creds.Save(path, creds.Credentials{Username: username, APIKey: apikey})
			}
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to store credentials: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess("Credentials stored")
			if len(args) == 0 {
				return
			}
		}
		if len(args) == 0 {
			output.PrintError("No source provided")
			os.Exit(1)
		}
		c, err := resolveCredentials()
		if err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		if nameOverride != "" && len(args) > 1 {
			output.PrintWarning("Ignoring --name with multiple sources")
			nameOverride = ""
		}
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		// Check if proxy URL contains auth
		parsedProxy, err := u.Parse(proxyURL)
		if err == nil && parsedProxy.User != nil && proxyUsername == "" {
			proxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				proxyPassword = password
			}
			parsedProxy.User = nil
			proxyURL = parsedProxy.String()
		}
		httpClientConfig := utils.HTTPClientConfig{
			Timeout:       timeout,
			KATimeout:     kaTimeout,
			ProxyURL:      proxyURL,
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			UserAgent:     userAgent,
			Headers:       utils.ParseHeaderArgs(headers),
		}
		jobs := make([]scheduler.TransferJob, 0, len(args))
		for _, src := range args {
			jobs = append(jobs, scheduler.TransferJob{
				ID:               uuid.NewString(),
				Source:           src,
				SourceType:       scheduler.DetermineSourceType(src),
				Name:             nameOverride,
				Profile:          awsProfile,
				HTTPClientConfig: httpClientConfig,
			})
		}
		if err := scheduler.Run(jobs, scheduler.Config{Workers: workers, Credentials: c}); err != nil {
			fmt.Println()
			output.PrintError("Encountered failed transfer(s)")
			os.Exit(1)
		}
	},
}

// resolveCredentials prefers flags, falling back to the credential store.
// Providing only one of the pair is an error rather than a silent fallback.
func resolveCredentials() (creds.Credentials, error) {
	if username != "" && apikey != "" {
		return creds.Credentials{Username: username, APIKey: apikey}, nil
	}
	if username != "" || apikey != "" {
		return creds.Credentials{}, fmt.Errorf("both --username and --apikey must be provided")
	}
	path, err := creds.DefaultPath()
	if err != nil {
		return creds.Credentials{}, err
	}
	c, err := creds.Load(path)
	if err != nil || !c.Complete() {
		return creds.Credentials{}, fmt.Errorf("no stored credentials found, provide --username and --apikey (add --store-credential to save them)")
	}
	return c, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&nameOverride, "name", "n", "", "Name for the stored file (defaults to the server-provided filename)")
	rootCmd.Flags().StringVarP(&username, "username", "u", "", "Username of the pixeldrain account to upload to")
	rootCmd.Flags().StringVarP(&apikey, "apikey", "k", "", "API key of the pixeldrain account to upload to")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of sources to transfer in parallel")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 60*time.Second, "Per-request timeout (eg. 30s, 5m)")
	rootCmd.Flags().DurationVar(&kaTimeout, "keep-alive-timeout", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a common one)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers for the download; can be specified multiple times")
	rootCmd.Flags().StringVar(&awsProfile, "profile", "default", "AWS profile for s3:// sources")

	// flags without shorthand
	rootCmd.Flags().BoolVar(&storeCredential, "store-credential", false, "Store the username and apikey for future use (overwrites previous)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newCredsCmd())
}
