package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkwell-blog/inkwell/config"
	"github.com/inkwell-blog/inkwell/database"
	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/util/crypto"
	"github.com/inkwell-blog/inkwell/util/random"
	"github.com/inkwell-blog/inkwell/web"
	"github.com/inkwell-blog/inkwell/web/service"

	"github.com/spf13/cobra"
)

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	level, err := logger.ParseLevel(string(cfg.LogLevel))
	if err != nil {
		log.Fatal("unknown log level:", cfg.LogLevel)
	}
	logger.InitLogger(level, cfg.LogFolder)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	cfg := loadConfig()
	initLogger(cfg)
	defer logger.CloseLogger()

	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close db err:", err)
		}
	}()

	server := web.NewServer(cfg)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP signal. Restarting web server...")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(cfg)
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			logger.Info("Shutting down web server...")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	cfg := loadConfig()
	fmt.Println("Start migrating database...")
	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatal("Error initializing database:", err)
	}
	defer database.CloseDB()
	fmt.Println("Migration done!")
}

func newUserService(cfg *config.Config) *service.UserService {
	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatal(err)
	}
	return service.NewUserService(database.NewUserRepository(database.GetDB()), crypto.NewHasher(cfg.HashCost))
}

func addUser(username, password string) {
	cfg := loadConfig()
	users := newUserService(cfg)
	defer database.CloseDB()

	user, err := users.Add(context.Background(), username, password)
	if err != nil {
		fmt.Println("add user failed:", err)
		os.Exit(1)
	}
	fmt.Printf("user %s created (id %s)\n", user.Username, user.Id)
}

func listUsers() {
	cfg := loadConfig()
	users := newUserService(cfg)
	defer database.CloseDB()

	list, err := users.List(context.Background())
	if err != nil {
		fmt.Println("list users failed:", err)
		os.Exit(1)
	}
	for _, u := range list {
		fmt.Printf("%s\t%s\t%s\n", u.Id, u.Username, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func main() {
	var rootCmd = &cobra.Command{
		Use: config.GetName(),
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var addCmd = &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		Run: func(cmd *cobra.Command, args []string) {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			addUser(username, password)
		},
	}
	addCmd.Flags().String("username", "", "login username")
	addCmd.Flags().String("password", "", "login password")
	_ = addCmd.MarkFlagRequired("username")
	_ = addCmd.MarkFlagRequired("password")

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List users",
		Run: func(cmd *cobra.Command, args []string) {
			listUsers()
		},
	}

	var secretCmd = &cobra.Command{
		Use:   "secret",
		Short: "Print a random value suitable for SESSION_SECRET",
		Run: func(cmd *cobra.Command, args []string) {
			length, _ := cmd.Flags().GetInt("length")
			fmt.Println(random.Seq(length))
		},
	}
	secretCmd.Flags().Int("length", 64, "number of characters")

	userCmd.AddCommand(addCmd, listCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, userCmd, secretCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
