// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, storage, jobs) and
// composes bounded-context containers. This is the only place that knows
// about ALL modules.
package main

import (
	"context"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/academy/internal/database"
	"github.com/Abraxas-365/academy/pkg/admin/adminapi"
	"github.com/Abraxas-365/academy/pkg/config"
	"github.com/Abraxas-365/academy/pkg/course/courseapi"
	"github.com/Abraxas-365/academy/pkg/course/courseinfra"
	"github.com/Abraxas-365/academy/pkg/course/coursesrv"
	"github.com/Abraxas-365/academy/pkg/fsx"
	"github.com/Abraxas-365/academy/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/academy/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/academy/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/academy/pkg/jobx"
	"github.com/Abraxas-365/academy/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/academy/pkg/logx"
	"github.com/Abraxas-365/academy/pkg/notification"
	"github.com/Abraxas-365/academy/pkg/notifx"
	"github.com/Abraxas-365/academy/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/academy/pkg/notifx/notifxses"
)

// uploadsURLPrefix is where locally stored files are served from.
const uploadsURLPrefix = "/uploads"

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB      *sqlx.DB
	Redis   *redis.Client
	Storage fsx.Storage
	Jobs    *jobx.Runner

	// Modules
	IAM            *iamcontainer.Container
	CourseService  *coursesrv.CourseService
	CourseHandlers *courseapi.CourseHandlers
	AdminHandlers  *adminapi.AdminHandlers
}

// NewContainer builds the full dependency graph. Any failure here is fatal:
// the process cannot serve traffic with a half-wired container.
func NewContainer() *Container {
	cfg := config.Load()
	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initStorage()
	c.initJobs()
	c.initModules()

	logx.Info("container initialized")
	return c
}

func (c *Container) initInfrastructure() {
	db, err := database.Connect(c.Config.Database)
	if err != nil {
		logx.Fatalf("database connection failed: %v", err)
	}
	if err := database.Migrate(c.Config.Database); err != nil {
		logx.Fatalf("database migration failed: %v", err)
	}
	c.DB = db
	logx.Info("postgres connected and migrated")

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		logx.Fatalf("redis connection failed: %v", err)
	}
	logx.Info("redis connected")
}

func (c *Container) initStorage() {
	switch c.Config.Storage.Mode {
	case "s3":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
			awsConfig.WithRegion(c.Config.Storage.AWSRegion))
		if err != nil {
			logx.Fatalf("aws config load failed: %v", err)
		}
		c.Storage = fsxs3.NewS3Storage(s3.NewFromConfig(awsCfg),
			c.Config.Storage.AWSBucket, c.Config.Storage.AWSRegion)
		logx.WithFields(logx.Fields{"bucket": c.Config.Storage.AWSBucket}).
			Info("using S3 storage")
	default:
		local, err := fsxlocal.NewLocalStorage(c.Config.Storage.LocalDir, uploadsURLPrefix)
		if err != nil {
			logx.Fatalf("local storage init failed: %v", err)
		}
		c.Storage = local
		logx.WithFields(logx.Fields{"dir": c.Config.Storage.LocalDir}).
			Info("using local storage")
	}
}

func (c *Container) initJobs() {
	backend := jobxredis.NewRedisBackend(c.Redis, c.Config.Jobx.ResultTTL)
	c.Jobs = jobx.NewRunner(backend,
		jobx.WithQueue(c.Config.Jobx.Queue),
		jobx.WithConcurrency(c.Config.Jobx.Concurrency),
		jobx.WithMaxAttempts(c.Config.Jobx.MaxRetries),
		jobx.WithRetryDelay(c.Config.Jobx.RetryDelay),
	)
}

func (c *Container) initModules() {
	// Notification pipeline: provider -> notifx client -> mailer handlers
	// on the job runner -> enqueuing service handed to IAM.
	var sender notifx.Sender
	if c.Config.Notifx.Provider == "ses" {
		awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
			awsConfig.WithRegion(c.Config.Notifx.AWSRegion))
		if err != nil {
			logx.Fatalf("aws config load failed: %v", err)
		}
		sender = notifxses.NewSESSender(ses.NewFromConfig(awsCfg))
		logx.Info("using SES mail provider")
	} else {
		sender = notifxconsole.NewConsoleSender()
		logx.Info("using console mail provider")
	}

	mailClient := notifx.NewClient(sender, c.Config.Notifx.FromAddress)
	mailer, err := notification.NewMailer(mailClient, c.Config.Notifx.FromAddress, c.Config.Notifx.FromName)
	if err != nil {
		logx.Fatalf("mail templates failed to parse: %v", err)
	}
	mailer.RegisterHandlers(c.Jobs)
	notifier := notification.NewService(c.Jobs)

	c.IAM = iamcontainer.New(iamcontainer.Deps{
		DB:                   c.DB,
		Redis:                c.Redis,
		Cfg:                  c.Config,
		Storage:              c.Storage,
		Notifier:             notifier,
		RegistrationNotifier: notifier,
	})

	courseRepo := courseinfra.NewPostgresCourseRepository(c.DB)
	c.CourseService = coursesrv.NewCourseService(courseRepo)
	c.CourseHandlers = courseapi.NewCourseHandlers(c.CourseService)

	c.AdminHandlers = adminapi.NewAdminHandlers(
		c.IAM.UserService,
		c.CourseService,
		c.Config.Auth.Password.MinLength,
	)
}

// StartBackgroundServices launches the job runner. The runner drains
// in-flight tasks when ctx is cancelled.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	go func() {
		if err := c.Jobs.Run(ctx); err != nil {
			logx.Errorf("job runner stopped: %v", err)
		}
	}()
	logx.Info("job runner started")
}

// Cleanup releases infrastructure connections. Safe to call once on
// shutdown.
func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("closing postgres: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("closing redis: %v", err)
		}
	}
	logx.Info("container cleaned up")
}
