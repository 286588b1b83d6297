package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	_ "time/tzdata"

	"github.com/noah-isme/team-calendar/internal/models"
	"github.com/noah-isme/team-calendar/internal/repository"
	"github.com/noah-isme/team-calendar/internal/service"
	"github.com/noah-isme/team-calendar/pkg/config"
	"github.com/noah-isme/team-calendar/pkg/database"
	"github.com/noah-isme/team-calendar/pkg/export"
	"github.com/noah-isme/team-calendar/pkg/logger"
)

const dateLayout = "2006-01-02"

// operator acts for calendarctl, which runs with direct store access.
var operator = &models.JWTClaims{Username: "calendarctl", IsManager: true}

func main() {
	app := &cli.App{
		Name:  "calendarctl",
		Usage: "Operate the team calendar store from the command line.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log store diagnostics to stderr."},
		},
		Commands: []*cli.Command{
			userCommand(),
			eventsCommand(),
			slotsCommand(),
			exportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "calendarctl:", err)
		os.Exit(1)
	}
}

// services holds everything a command needs; close releases the store.
type services struct {
	db       *sqlx.DB
	logger   *zap.Logger
	users    *service.UserService
	calendar *service.CalendarService
	export   *service.ExportService
}

func (s *services) close() {
	_ = s.logger.Sync()
	_ = s.db.Close()
}

func openServices(c *cli.Context) (*services, error) {
	logr, err := logger.NewCLI(c.Bool("verbose"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db, metrics)
	calendarSvc := service.NewCalendarService(eventRepo, userRepo, metrics, validate, logr)

	return &services{
		db:       db,
		logger:   logr,
		users:    service.NewUserService(userRepo, validate, logr),
		calendar: calendarSvc,
		export:   service.NewExportService(calendarSvc, export.NewICSExporter(""), export.NewCSVExporter(), export.NewPDFExporter(), logr),
	}, nil
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage accounts.",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an account; the username is derived from the name.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first", Required: true, Usage: "First name."},
					&cli.StringFlag{Name: "last", Required: true, Usage: "Last name."},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"CALENDAR_PASSWORD"}, Usage: "Initial password."},
					&cli.BoolFlag{Name: "manager", Usage: "Grant the manager role."},
				},
				Action: func(c *cli.Context) error {
					svc, err := openServices(c)
					if err != nil {
						return err
					}
					defer svc.close()

					user, err := svc.users.Create(c.Context, operator, models.CreateUserRequest{
						FirstName: c.String("first"),
						LastName:  c.String("last"),
						Password:  c.String("password"),
						IsManager: c.Bool("manager"),
					})
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, user.Username)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List accounts.",
				Action: func(c *cli.Context) error {
					svc, err := openServices(c)
					if err != nil {
						return err
					}
					defer svc.close()

					users, err := svc.users.List(c.Context)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "USERNAME\tNAME\tMANAGER")
					for _, u := range users {
						fmt.Fprintf(w, "%s\t%s %s\t%t\n", u.Username, u.FirstName, u.LastName, u.IsManager)
					}
					return w.Flush()
				},
			},
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Inspect calendars.",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a user's calendar, optionally restricted to one day.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD; omit for the whole calendar."},
					&cli.StringFlag{Name: "tz", Value: "UTC", Usage: "IANA time zone for --date."},
				},
				Action: func(c *cli.Context) error {
					loc, err := time.LoadLocation(c.String("tz"))
					if err != nil {
						return fmt.Errorf("invalid timezone %q: %w", c.String("tz"), err)
					}
					svc, err := openServices(c)
					if err != nil {
						return err
					}
					defer svc.close()

					var events []*models.Event
					if raw := c.String("date"); raw != "" {
						date, err := time.ParseInLocation(dateLayout, raw, loc)
						if err != nil {
							return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
						}
						events, err = svc.calendar.EventsOnDate(c.Context, c.String("user"), date)
						if err != nil {
							return err
						}
					} else {
						user, err := svc.calendar.LoadUser(c.Context, c.String("user"))
						if err != nil {
							return err
						}
						events = user.Calendar
					}
					return printEvents(c, events, loc)
				},
			},
		},
	}
}

func printEvents(c *cli.Context, events []*models.Event, loc *time.Location) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART\tEND\tKIND\tTITLE\tATTENDEES")
	for _, ev := range events {
		id := "-"
		if ev.ID != nil {
			id = fmt.Sprint(*ev.ID)
		}
		attendees := ""
		if ev.IsMeeting() {
			attendees = strings.Join(ev.Meeting.Attendees, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			id,
			ev.Start.In(loc).Format("2006-01-02 15:04"),
			ev.End.In(loc).Format("2006-01-02 15:04"),
			strings.ToLower(string(ev.Kind)),
			ev.Title,
			attendees)
	}
	return w.Flush()
}

func slotsCommand() *cli.Command {
	return &cli.Command{
		Name:  "slots",
		Usage: "Find hourly meeting slots free for a manager and attendees.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "manager", Required: true},
			&cli.StringFlag{Name: "date", Required: true, Usage: "YYYY-MM-DD"},
			&cli.IntFlag{Name: "duration", Value: 60, Usage: "Meeting length in minutes."},
			&cli.StringSliceFlag{Name: "attendee", Usage: "Attendee username; repeatable."},
			&cli.StringFlag{Name: "tz", Value: "UTC"},
		},
		Action: func(c *cli.Context) error {
			loc, err := time.LoadLocation(c.String("tz"))
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", c.String("tz"), err)
			}
			date, err := time.ParseInLocation(dateLayout, c.String("date"), loc)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			svc, err := openServices(c)
			if err != nil {
				return err
			}
			defer svc.close()

			manager, err := svc.calendar.LoadUser(c.Context, c.String("manager"))
			if err != nil {
				return err
			}
			if !manager.IsManager {
				return fmt.Errorf("%s is not a manager", manager.Username)
			}
			slots, err := svc.calendar.FindAvailableSlots(c.Context, manager, date,
				time.Duration(c.Int("duration"))*time.Minute, c.StringSlice("attendee"))
			if err != nil {
				return err
			}
			for _, slot := range slots {
				fmt.Fprintln(c.App.Writer, slot.In(loc).Format("15:04"))
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a user's events in a range to a file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true},
			&cli.StringFlag{Name: "from", Required: true, Usage: "YYYY-MM-DD"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "YYYY-MM-DD, inclusive"},
			&cli.StringFlag{Name: "format", Value: "ics", Usage: "ics, csv or pdf"},
			&cli.StringFlag{Name: "out", Usage: "Output path; defaults to the generated file name."},
		},
		Action: func(c *cli.Context) error {
			format, err := service.ParseExportFormat(c.String("format"))
			if err != nil {
				return err
			}
			from, err := time.Parse(dateLayout, c.String("from"))
			if err != nil {
				return fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
			}
			to, err := time.Parse(dateLayout, c.String("to"))
			if err != nil {
				return fmt.Errorf("--to must be YYYY-MM-DD: %w", err)
			}
			to = to.AddDate(0, 0, 1).Add(-time.Second)

			svc, err := openServices(c)
			if err != nil {
				return err
			}
			defer svc.close()

			file, err := svc.export.Export(c.Context, c.String("user"), format, from, to)
			if err != nil {
				return err
			}
			out := c.String("out")
			if out == "" {
				out = file.Filename
			}
			if err := os.WriteFile(out, file.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			svc.logger.Info("export written", zap.String("path", out), zap.Int("bytes", len(file.Body)))
			return nil
		},
	}
}
