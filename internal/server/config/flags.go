package config

import (
	"flag"
	"os"
	"time"

	"github.com/petitions/petitiond/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":4941")
//	-d string   PostgreSQL DSN
//	-k int      bcrypt cost
//	-f string   photo backend, "fs" or "s3"
//	-o string   photo directory for the fs backend
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l float    login/register requests per second per client
//	-w int      shutdown timeout, seconds
//
// Args are first filtered with flagx.FilterArgs so the -c/-config flag
// handled by parseJson does not trip this FlagSet.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k", "-f", "-o", "-u", "-p", "-b", "-g", "-e", "-l", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")

	fs.StringVar(&config.PhotoBackend, "f", config.PhotoBackend, "photo backend (fs|s3)")
	fs.StringVar(&config.PhotoDir, "o", config.PhotoDir, "photo directory")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.Float64Var(&config.LoginRate, "l", config.LoginRate, "login rate limit (requests per second per client)")
	shutdownTimeout := fs.Int("w", int(config.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ShutdownTimeout = time.Duration(*shutdownTimeout) * time.Second
}
