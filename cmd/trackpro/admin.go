package main

import (
	"context"
	"fmt"
	"os"

	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/domain/user"
)

const adminUsage = `usage: trackpro admin <subcommand>

  users [-status pending|approved|rejected]
  approve <user id>
  reject <user id>
  delete <user id>
  actions
  subscriptions
  subscribe [-notes text] <user id> activate|extend|deactivate`

func runAdmin(ctx context.Context, c *cli, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, adminUsage)
		return errUsage
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "users":
		return adminUsers(ctx, c, rest)
	case "approve", "reject", "delete":
		return adminModerate(ctx, c, sub, rest)
	case "actions":
		return adminActions(ctx, c)
	case "subscriptions":
		return adminSubscriptions(ctx, c)
	case "subscribe":
		return adminSubscribe(ctx, c, rest)
	}
	fmt.Fprintln(os.Stderr, adminUsage)
	return errUsage
}

func adminUsers(ctx context.Context, c *cli, args []string) error {
	fs := flags("admin users", "admin users [-status pending|approved|rejected]")
	status := fs.String("status", "", "only users with this status")
	if err := parse(fs, args); err != nil {
		return err
	}

	users, err := c.q.AdminUsers(ctx)
	if err != nil {
		return err
	}
	stats, err := c.q.AdminStats(ctx)
	if err != nil {
		return err
	}

	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tSTATUS\tJOINED")
	for _, u := range users {
		if *status != "" && u.Status != user.Status(*status) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.Status, formatTime(u.CreatedAt))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	c.printf("\n%d users: %d pending, %d approved, %d rejected\n",
		stats.TotalUsers, stats.PendingUsers, stats.ApprovedUsers, stats.RejectedUsers)
	return nil
}

func adminModerate(ctx context.Context, c *cli, action string, args []string) error {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: trackpro admin %s <user id>\n", action)
		return errUsage
	}
	id := args[0]

	var err error
	switch action {
	case "approve":
		err = c.q.ApproveUser(ctx, id)
	case "reject":
		err = c.q.RejectUser(ctx, id)
	case "delete":
		err = c.q.DeleteUser(ctx, id)
	}
	if err != nil {
		return err
	}
	c.printf("User %s: %s done\n", id, action)
	return nil
}

func adminActions(ctx context.Context, c *cli) error {
	actions, err := c.q.AdminActions(ctx)
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "WHEN\tACTION\tUSER")
	for _, a := range actions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", formatTime(a.Timestamp), a.Action, a.TargetUser)
	}
	return w.Flush()
}

func adminSubscriptions(ctx context.Context, c *cli) error {
	subs, err := c.q.AdminSubscriptions(ctx)
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "USER ID\tNAME\tEMAIL\tSTATUS\tACTIVE\tENDS\tNOTES")
	for _, s := range subs {
		ends := "-"
		if s.PeriodEnd != nil {
			ends = formatTime(*s.PeriodEnd)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\t%s\n",
			s.UserID, s.UserName(), s.UserEmail, s.Status, s.IsActive, ends, truncate(s.Notes, 40))
	}
	return w.Flush()
}

func adminSubscribe(ctx context.Context, c *cli, args []string) error {
	fs := flags("admin subscribe", "admin subscribe [-notes text] <user id> activate|extend|deactivate")
	notes := fs.String("notes", "", "note stored with the change")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}

	action, err := subscription.ParseAction(fs.Arg(1))
	if err != nil {
		return err
	}
	if err := c.q.UpdateSubscription(ctx, fs.Arg(0), action, *notes); err != nil {
		return err
	}
	c.printf("Subscription of user %s: %s done\n", fs.Arg(0), action)
	return nil
}
