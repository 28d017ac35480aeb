package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmeshcher/cookiebreaks/internal/model"
	"github.com/mmeshcher/cookiebreaks/internal/session"
)

const usage = `usage: cookiebreaks [flags] <command> [args]

commands:
  list                  list breaks (default)
  upcoming              list upcoming breaks
  announce ID           announce a break
  reimburse ID COST     record the host's reimbursement
  host ID NAME          set the host of a break
  claims                list expense claims
  claim ID...           submit a claim for reimbursed breaks
  success CLAIM_ID      record a claim as reimbursed
  whoami                show the current user`

var errUsage = errors.New(usage)

type cli struct {
	manager  *session.Manager
	username string
	password string
	out      io.Writer
}

func (c *cli) run(ctx context.Context, args []string) error {
	cmd := "list"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "list", "upcoming":
		return c.list(ctx, cmd == "upcoming")
	case "announce":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		return c.withLogin(ctx, func() error {
			return c.printBreakAfter(c.manager.Announce(ctx, id), id)
		})
	case "reimburse":
		if len(args) != 2 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		cost, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid cost %q", args[1])
		}
		return c.withLogin(ctx, func() error {
			return c.printBreakAfter(c.manager.Reimburse(ctx, id, cost), id)
		})
	case "host":
		if len(args) < 2 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		name := strings.Join(args[1:], " ")
		return c.withLogin(ctx, func() error {
			return c.printBreakAfter(c.manager.SetHost(ctx, id, name), id)
		})
	case "claims":
		return c.withLogin(ctx, func() error {
			if err := check(c.manager.ListClaims(ctx, model.ClaimFilters{})); err != nil {
				return err
			}
			return c.printClaims()
		})
	case "claim":
		if len(args) == 0 {
			return errUsage
		}
		ids := make([]int64, 0, len(args))
		for _, a := range args {
			id, err := parseID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return c.withLogin(ctx, func() error {
			if err := check(c.manager.ClaimBreaks(ctx, ids)); err != nil {
				return err
			}
			return c.printClaims()
		})
	case "success":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		return c.withLogin(ctx, func() error {
			if err := check(c.manager.CompleteClaim(ctx, id)); err != nil {
				return err
			}
			return c.printClaims()
		})
	case "whoami":
		return c.withLogin(ctx, func() error {
			me, err := c.manager.Me(ctx)
			if err != nil {
				return err
			}
			role := "user"
			if me.Admin {
				role = "admin"
			}
			_, err = fmt.Fprintf(c.out, "%s (%s)\n", me.Username, role)
			return err
		})
	default:
		return errUsage
	}
}

// list показывает перерывы. Без учётных данных список запрашивается анонимно.
func (c *cli) list(ctx context.Context, upcoming bool) error {
	var filters model.BreakFilters
	if upcoming {
		past := false
		filters.Past = &past
	}

	if c.username != "" {
		if err := c.login(ctx); err != nil {
			return err
		}
	}
	// Вход уже заполняет список всех перерывов.
	if upcoming || !c.manager.State().LoggedIn() {
		if err := check(c.manager.ListBreaks(ctx, filters)); err != nil {
			return err
		}
	}

	return c.printBreaks(c.manager.State().Breaks)
}

func (c *cli) login(ctx context.Context) error {
	return check(c.manager.Login(ctx, c.username, c.password))
}

func (c *cli) withLogin(ctx context.Context, fn func() error) error {
	if err := c.login(ctx); err != nil {
		return err
	}
	return fn()
}

func (c *cli) printBreakAfter(o session.Outcome, id int64) error {
	if err := check(o); err != nil {
		return err
	}
	for _, b := range c.manager.State().Breaks {
		if b.ID == id {
			return c.printBreaks([]model.Break{b})
		}
	}
	return nil
}

func (c *cli) printBreaks(list []model.Break) error {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tLOCATION\tHOST\tSTAGE\tCOST")
	for _, b := range list {
		host := b.Host
		if host == "" {
			host = "-"
		}
		if b.Holiday {
			host = "holiday"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Time.Local().Format("Mon 02 Jan 2006 15:04"), b.Location, host, b.Stage(), formatCost(b.Cost))
	}
	return tw.Flush()
}

func (c *cli) printClaims() error {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tBREAKS\tAMOUNT\tREIMBURSED")
	for _, cl := range c.manager.State().Claims {
		ids := make([]string, 0, len(cl.Breaks))
		for _, b := range cl.Breaks {
			ids = append(ids, strconv.FormatInt(b.ID, 10))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n",
			cl.ID, cl.Date.Local().Format(time.DateOnly), strings.Join(ids, ","), cl.Amount, formatDate(cl.Reimbursed))
	}
	return tw.Flush()
}

func check(o session.Outcome) error {
	if o.OK() {
		return nil
	}
	if o.Err != nil && o.Kind == session.TransportFailure {
		return fmt.Errorf("%s (%w)", o.Status, o.Err)
	}
	return errors.New(o.Status)
}

func oneID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	return parseID(args[0])
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func formatCost(cost *float64) string {
	if cost == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *cost)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}
