package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/domain/community"
	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/domain/profile"
	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/query"
)

// ---------- session ----------

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := flags("login", "login [-email you@example.com]")
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}

	addr, err := c.prompt("Email", *email)
	if err != nil {
		return err
	}
	pass, err := c.password("Password")
	if err != nil {
		return err
	}

	u, err := c.session.Login(ctx, user.LoginCredentials{Email: addr, Password: pass})
	if err != nil {
		return err
	}
	c.printf("Signed in as %s <%s> (%s)\n", u.Name, u.Email, u.Role)
	return nil
}

func runLogout(ctx context.Context, c *cli, _ []string) error {
	if err := c.session.Logout(ctx); err != nil {
		return err
	}
	c.printf("Signed out\n")
	return nil
}

func runRegister(ctx context.Context, c *cli, args []string) error {
	fs := flags("register", "register [-name 'First Last'] [-email you@example.com]")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}

	fullName, err := c.prompt("Name", *name)
	if err != nil {
		return err
	}
	addr, err := c.prompt("Email", *email)
	if err != nil {
		return err
	}
	pass, err := c.password("Password")
	if err != nil {
		return err
	}
	confirm, err := c.password("Repeat password")
	if err != nil {
		return err
	}
	if pass != confirm {
		return fmt.Errorf("passwords do not match")
	}

	u, err := c.session.Register(ctx, user.RegisterData{Name: fullName, Email: addr, Password: pass})
	if err != nil {
		return err
	}
	c.printf("Account %s created, waiting for admin approval\n", u.Email)
	return nil
}

func runWhoami(ctx context.Context, c *cli, _ []string) error {
	u, err := c.q.Me(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		c.printf("Not signed in\n")
		return nil
	}
	w := c.table()
	fmt.Fprintf(w, "ID\t%s\n", u.ID)
	fmt.Fprintf(w, "Name\t%s\n", u.Name)
	fmt.Fprintf(w, "Email\t%s\n", u.Email)
	fmt.Fprintf(w, "Role\t%s\n", u.Role)
	fmt.Fprintf(w, "Status\t%s\n", u.Status)
	fmt.Fprintf(w, "Member since\t%s\n", formatTime(u.CreatedAt))
	return w.Flush()
}

func runForgotPassword(ctx context.Context, c *cli, args []string) error {
	fs := flags("forgot-password", "forgot-password [-email you@example.com]")
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}
	addr, err := c.prompt("Email", *email)
	if err != nil {
		return err
	}
	msg, err := c.auth.ForgotPassword(ctx, addr)
	if err != nil {
		return err
	}
	c.printf("%s\n", msg)
	return nil
}

func runResetPassword(ctx context.Context, c *cli, args []string) error {
	fs := flags("reset-password", "reset-password -token <token from the email>")
	token := fs.String("token", "", "reset token")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *token == "" {
		fs.Usage()
		return errUsage
	}
	pass, err := c.password("New password")
	if err != nil {
		return err
	}
	if err := c.auth.ResetPassword(ctx, *token, pass); err != nil {
		return err
	}
	c.printf("Password updated, sign in with the new one\n")
	return nil
}

// ---------- activities ----------

func runActivities(ctx context.Context, c *cli, _ []string) error {
	items, err := c.q.Activities(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		c.printf("No activities yet. Upload one with: trackpro upload <file.gpx>\n")
		return nil
	}

	w := c.table()
	fmt.Fprintln(w, "ID\tDATE\tSPORT\tNAME\tKM\tTIME\tAVG KM/H\tGAIN M")
	for _, a := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%.1f\t%.0f\n",
			a.ID, formatTime(a.Date), a.SportType, truncate(a.Name, 32),
			a.Distance, formatDuration(a.Duration), a.AvgSpeed, a.ElevationGain)
	}
	return w.Flush()
}

func runActivity(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: trackpro activity <id>")
		return errUsage
	}
	s, err := c.q.Activity(ctx, args[0])
	if err != nil {
		return err
	}

	w := c.table()
	fmt.Fprintf(w, "Name\t%s\n", s.Name)
	fmt.Fprintf(w, "Sport\t%s\n", s.SportType)
	fmt.Fprintf(w, "Date\t%s\n", formatTime(s.Date))
	fmt.Fprintf(w, "Distance\t%.2f km\n", s.Distance)
	fmt.Fprintf(w, "Duration\t%s\n", formatDuration(s.Duration))
	fmt.Fprintf(w, "Speed\tavg %.1f / max %.1f km/h\n", s.AvgSpeed, s.MaxSpeed)
	if s.Pace > 0 {
		fmt.Fprintf(w, "Pace\t%.2f min/km\n", s.Pace)
	}
	fmt.Fprintf(w, "Elevation\t+%.0f / -%.0f m\n", s.ElevationGain, s.ElevationLoss)
	if s.AvgHeartRate > 0 {
		fmt.Fprintf(w, "Heart rate\tavg %.0f / max %.0f bpm\n", s.AvgHeartRate, s.MaxHeartRate)
	}
	if s.AvgCadence > 0 {
		fmt.Fprintf(w, "Cadence\t%.0f\n", s.AvgCadence)
	}
	fmt.Fprintf(w, "Track\t%d map points, %d profile samples\n", len(s.Coordinates), len(s.ElevationProfile))
	return w.Flush()
}

func runUpload(ctx context.Context, c *cli, args []string) error {
	fs := flags("upload", "upload [-sport cycling|running|other] <file.gpx>")
	sport := fs.String("sport", string(activity.SportCycling), "sport type")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	a, err := c.q.UploadActivityFile(ctx, fs.Arg(0), activity.SportType(*sport), func(pct int) {
		fmt.Fprintf(c.out, "\ruploading %3d%%", pct)
	})
	fmt.Fprintln(c.out)
	if err != nil {
		return err
	}
	c.printf("Uploaded %q: %.2f km in %s (id %s)\n", a.Name, a.Distance, formatDuration(a.Duration), a.ID)
	return nil
}

// ---------- community ----------

func runFeed(ctx context.Context, c *cli, args []string) error {
	fs := flags("feed", "feed [-q search] [-cursor id] [-limit n]")
	search := fs.String("q", "", "search post content")
	cursor := fs.Int64("cursor", 0, "continue after this post id")
	limit := fs.Int("limit", 0, "posts per page")
	if err := parse(fs, args); err != nil {
		return err
	}

	filter := community.FeedFilter{Search: *search, Limit: *limit}
	if *cursor > 0 {
		filter.Cursor = cursor
	}
	feed, err := c.q.CommunityPosts(ctx, filter)
	if err != nil {
		return err
	}

	for _, p := range feed.Posts {
		pin := ""
		if p.Pinned {
			pin = " [pinned]"
		}
		c.printf("#%d %s, %s%s\n", p.ID, p.AuthorName, formatTime(p.CreatedAt), pin)
		c.printf("  %s\n", truncate(p.Content, 200))
		var reactions []string
		for _, r := range p.Reactions {
			reactions = append(reactions, fmt.Sprintf("%s %d", r.Emoji, r.Count))
		}
		c.printf("  %d comments  %s\n\n", p.CommentCount, strings.Join(reactions, "  "))
	}
	if feed.NextCursor != nil {
		c.printf("More: trackpro feed -cursor %d\n", *feed.NextCursor)
	}
	return nil
}

func runPost(ctx context.Context, c *cli, args []string) error {
	fs := flags("post", "post [-activity id] <text>")
	activityID := fs.Int64("activity", 0, "attach one of your activities")
	if err := parse(fs, args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fs.Usage()
		return errUsage
	}

	var attach *int64
	if *activityID > 0 {
		attach = activityID
	}
	p, err := c.q.CreatePost(ctx, text, attach)
	if err != nil {
		return err
	}
	c.printf("Posted #%d\n", p.ID)
	return nil
}

// ---------- messaging ----------

func runInbox(ctx context.Context, c *cli, args []string) error {
	fs := flags("inbox", "inbox [-follow] [<conversation id>]")
	follow := fs.Bool("follow", false, "keep polling the open conversation for new messages")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 || (*follow && fs.NArg() == 0) {
		fs.Usage()
		return errUsage
	}
	if fs.NArg() == 1 {
		id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid conversation id %q", fs.Arg(0))
		}
		if *follow {
			return followThread(ctx, c, id)
		}
		_, err = showThread(ctx, c, id)
		return err
	}

	convs, err := c.q.Conversations(ctx)
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		c.printf("No conversations. Start one with: trackpro send -to <user id> <text>\n")
		return nil
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tWITH\tUNREAD\tLAST")
	for _, conv := range convs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", conv.ID, conv.OtherUserName, conv.UnreadCount, truncate(conv.LastMessage, 48))
	}
	return w.Flush()
}

// showThread prints a conversation, marks it read and returns the id of the
// newest message shown.
func showThread(ctx context.Context, c *cli, conversationID int64) (int64, error) {
	thread, err := c.q.Messages(ctx, conversationID, nil)
	if err != nil {
		return 0, err
	}
	last := c.printMessages(thread, 0)
	return last, c.q.MarkConversationRead(ctx, conversationID)
}

// printMessages prints the messages newer than after, oldest first, and
// returns the newest id seen.
func (c *cli) printMessages(thread *messaging.Thread, after int64) int64 {
	me := c.session.User()
	newest := after
	// Newest first on the wire.
	for i := len(thread.Messages) - 1; i >= 0; i-- {
		m := thread.Messages[i]
		if m.ID <= after {
			continue
		}
		who := "them"
		if me != nil && strconv.FormatInt(m.SenderID, 10) == me.ID {
			who = "you"
		}
		c.printf("[%s] %s: %s\n", formatTime(m.CreatedAt), who, m.Content)
		newest = max(newest, m.ID)
	}
	return newest
}

// followThread shows a conversation and polls it until interrupted.
func followThread(ctx context.Context, c *cli, conversationID int64) error {
	if !c.q.PollingAllowed() {
		return fmt.Errorf("following a conversation needs a signed-in, approved account")
	}
	last, err := showThread(ctx, c, conversationID)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	report := func(_ query.Key, value any) {
		thread, ok := value.(*messaging.Thread)
		if !ok || thread == nil {
			return
		}
		mu.Lock()
		newest := c.printMessages(thread, last)
		arrived := newest > last
		last = newest
		mu.Unlock()

		if arrived {
			if err := c.q.MarkConversationRead(ctx, conversationID); err != nil {
				c.logger.Warn("failed to mark conversation read", zap.Int64("conversation_id", conversationID), zap.Error(err))
			}
		}
	}
	return pollUntilDone(ctx, c, fmt.Sprintf("Following conversation %d, press Ctrl+C to stop\n", conversationID),
		c.q.ThreadJob(conversationID, report))
}

func runSend(ctx context.Context, c *cli, args []string) error {
	fs := flags("send", "send (-to <user id> | -conversation <id>) <text>")
	to := fs.Int64("to", 0, "recipient user id")
	convID := fs.Int64("conversation", 0, "existing conversation id")
	if err := parse(fs, args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" || (*to == 0) == (*convID == 0) {
		fs.Usage()
		return errUsage
	}

	id := *convID
	if *to != 0 {
		conv, err := c.q.StartConversation(ctx, *to)
		if err != nil {
			return err
		}
		id = conv.ID
	}
	if _, err := c.q.SendMessage(ctx, id, text); err != nil {
		return err
	}
	c.printf("Sent to conversation %d\n", id)
	return nil
}

// ---------- notifications & subscription ----------

func runNotifications(ctx context.Context, c *cli, args []string) error {
	fs := flags("notifications", "notifications [-read] [-clear]")
	markRead := fs.Bool("read", false, "mark all as read")
	clearAll := fs.Bool("clear", false, "delete all")
	if err := parse(fs, args); err != nil {
		return err
	}

	switch {
	case *clearAll:
		if err := c.q.ClearNotifications(ctx); err != nil {
			return err
		}
		c.printf("Notifications cleared\n")
		return nil
	case *markRead:
		if err := c.q.MarkNotificationsRead(ctx); err != nil {
			return err
		}
		c.printf("All notifications marked as read\n")
		return nil
	}

	items, err := c.q.Notifications(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		c.printf("No notifications\n")
		return nil
	}
	for _, n := range items {
		mark := "*"
		if n.IsRead() {
			mark = " "
		}
		c.printf("%s %s  %s\n    %s\n", mark, formatTime(n.CreatedAt), n.Title, truncate(n.Body, 120))
	}
	return nil
}

func runSubscription(ctx context.Context, c *cli, _ []string) error {
	sub, err := c.q.MySubscription(ctx)
	if err != nil {
		return err
	}
	if sub == nil {
		c.printf("Subscription status unknown\n")
		return nil
	}

	w := c.table()
	fmt.Fprintf(w, "Status\t%s\n", sub.Status)
	fmt.Fprintf(w, "Active\t%t\n", sub.IsActive)
	if sub.PeriodEnd != nil {
		fmt.Fprintf(w, "Ends\t%s (%d days left)\n", formatTime(*sub.PeriodEnd), sub.DaysLeft(time.Now()))
	}
	if sub.ActivatedBy != "" {
		fmt.Fprintf(w, "Activated by\t%s\n", sub.ActivatedBy)
	}
	return w.Flush()
}

// ---------- profile ----------

func runProfile(ctx context.Context, c *cli, args []string) error {
	fs := flags("profile", "profile [-bio text] [-city name] [-country name] [-sport type] [-level level] [-avatar url]")
	bio := fs.String("bio", "", "short bio")
	city := fs.String("city", "", "city")
	country := fs.String("country", "", "country")
	sport := fs.String("sport", "", "primary sport")
	level := fs.String("level", "", "beginner|intermediate|advanced|elite")
	avatar := fs.String("avatar", "", "avatar URL, shared with other users")
	if err := parse(fs, args); err != nil {
		return err
	}

	p, err := c.q.Profile(ctx)
	if err != nil {
		return err
	}

	changed := false
	fs.Visit(func(f *flag.Flag) { changed = true })
	if changed {
		set := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		set(&p.Bio, *bio)
		set(&p.City, *city)
		set(&p.Country, *country)
		set(&p.AvatarURL, *avatar)
		if *sport != "" {
			p.PrimarySport = activity.SportType(*sport)
		}
		if *level != "" {
			p.ExperienceLevel = profile.ExperienceLevel(*level)
		}
		if err := c.q.SaveProfile(ctx, p); err != nil {
			return err
		}
		c.printf("Profile saved\n")
	}

	w := c.table()
	fmt.Fprintf(w, "Bio\t%s\n", p.Bio)
	fmt.Fprintf(w, "Location\t%s\n", strings.Trim(p.City+", "+p.Country, ", "))
	fmt.Fprintf(w, "Primary sport\t%s\n", p.PrimarySport)
	fmt.Fprintf(w, "Level\t%s\n", p.ExperienceLevel)
	fmt.Fprintf(w, "Avatar\t%s\n", p.AvatarURL)
	return w.Flush()
}

// ---------- polling ----------

func runWatch(ctx context.Context, c *cli, _ []string) error {
	if !c.q.PollingAllowed() {
		return fmt.Errorf("watching needs a signed-in, approved account")
	}
	report := func(key query.Key, value any) {
		c.printf("%s  %-28s %s\n", time.Now().Format("15:04:05"), key.String(), formatPolled(value))
	}
	return pollUntilDone(ctx, c, "Watching, press Ctrl+C to stop\n", c.q.PollJobs(report)...)
}

// pollUntilDone schedules jobs, runs them once right away and keeps polling
// until ctx is cancelled.
func pollUntilDone(ctx context.Context, c *cli, banner string, jobs ...*query.Job) error {
	poller := query.NewPoller(c.logger)
	detach, err := c.q.AttachPoller(poller, jobs...)
	if err != nil {
		return err
	}
	defer detach()

	poller.Start()
	poller.TriggerAll()
	c.printf("%s", banner)
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	poller.Stop(stopCtx)
	return nil
}

func formatPolled(v any) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val) + " unread"
	case *subscription.Subscription:
		if val == nil {
			return "no subscription"
		}
		return fmt.Sprintf("%s, active=%t", val.Status, val.IsActive)
	}
	return fmt.Sprintf("%+v", v)
}
