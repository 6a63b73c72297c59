// internal/devapi/store_social.go
package devapi

import (
	"cmp"
	"slices"
	"strings"

	"trackpro-client/internal/domain/community"
	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/domain/user"
)

const (
	defaultFeedLimit   = 20
	maxFeedLimit       = 50
	defaultThreadLimit = 50
	maxThreadLimit     = 100
)

// ---------- community ----------

func (s *Store) authorName(id int64) (string, string) {
	a, ok := s.accounts[id]
	if !ok {
		return "Deleted user", ""
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName), a.AvatarURL
}

// postViewLocked fills author, reactions and comment count for viewer.
func (s *Store) postViewLocked(p *postRecord, viewer int64) community.Post {
	out := p.Post
	out.AuthorName, out.AuthorAvatar = s.authorName(p.AuthorID)
	out.Reactions = make([]community.Reaction, 0, len(p.emojis))
	for _, emoji := range p.emojis {
		users := p.reactions[emoji]
		if len(users) == 0 {
			continue
		}
		out.Reactions = append(out.Reactions, community.Reaction{
			Emoji:   emoji,
			Count:   len(users),
			Reacted: users[viewer],
		})
	}
	for _, c := range s.comments {
		if c.PostID == p.ID {
			out.CommentCount++
		}
	}
	return out
}

func (s *Store) CreatePost(authorID int64, content string, activityID *int64) community.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	p := &postRecord{
		Post: community.Post{
			ID:         s.nextID(),
			AuthorID:   authorID,
			Content:    content,
			ActivityID: activityID,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		reactions: make(map[string]map[int64]bool),
	}
	s.posts[p.ID] = p

	name, _ := s.authorName(authorID)
	preview := content
	if r := []rune(preview); len(r) > 100 {
		preview = string(r[:100]) + "…"
	}
	for id, a := range s.accounts {
		if id != authorID && a.Status == user.StatusApproved {
			s.notifyLocked(id, name+" posted in Community", preview)
		}
	}
	return s.postViewLocked(p, authorID)
}

// ListPosts pages pinned posts first, then newest. The cursor is the id of
// the last post of the previous page.
func (s *Store) ListPosts(viewer int64, cursor *int64, limit int, search string) community.Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	search = strings.ToLower(strings.TrimSpace(search))

	matches := make([]*postRecord, 0)
	for _, p := range s.posts {
		if cursor != nil && p.ID >= *cursor {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Content), search) {
			continue
		}
		matches = append(matches, p)
	}
	slices.SortFunc(matches, func(a, b *postRecord) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.ID, a.ID)
	})

	feed := community.Feed{Posts: make([]community.Post, 0, min(limit, len(matches)))}
	if len(matches) > limit {
		next := matches[limit-1].ID
		feed.NextCursor = &next
		matches = matches[:limit]
	}
	for _, p := range matches {
		feed.Posts = append(feed.Posts, s.postViewLocked(p, viewer))
	}
	return feed
}

func (s *Store) GetPost(viewer, id int64) (community.PostDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return community.PostDetail{}, ErrNotFound
	}
	comments := make([]community.Comment, 0)
	for _, c := range s.comments {
		if c.PostID != id {
			continue
		}
		view := *c
		view.AuthorName, view.AuthorAvatar = s.authorName(c.AuthorID)
		comments = append(comments, view)
	}
	slices.SortFunc(comments, func(a, b community.Comment) int { return cmp.Compare(a.ID, b.ID) })
	return community.PostDetail{Post: s.postViewLocked(p, viewer), Comments: comments}, nil
}

// PostAuthor returns the author of a post.
func (s *Store) PostAuthor(id int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return 0, ErrNotFound
	}
	return p.AuthorID, nil
}

func (s *Store) DeletePost(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	s.deletePostLocked(id)
	return nil
}

func (s *Store) deletePostLocked(id int64) {
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
}

func (s *Store) PinPost(id int64, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return ErrNotFound
	}
	p.Pinned = pinned
	p.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) AddComment(postID, authorID int64, content string) (community.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return community.Comment{}, ErrNotFound
	}
	c := &community.Comment{
		ID:        s.nextID(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	s.comments[c.ID] = c

	view := *c
	view.AuthorName, view.AuthorAvatar = s.authorName(authorID)
	if p.AuthorID != authorID {
		s.notifyLocked(p.AuthorID, view.AuthorName+" commented on your post", content)
	}
	return view, nil
}

func (s *Store) CommentAuthor(id int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return 0, ErrNotFound
	}
	return c.AuthorID, nil
}

func (s *Store) DeleteComment(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// ToggleReaction adds or removes userID's emoji and reports whether it was added.
func (s *Store) ToggleReaction(postID, userID int64, emoji string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return false, ErrNotFound
	}
	users, ok := p.reactions[emoji]
	if !ok {
		users = make(map[int64]bool)
		p.reactions[emoji] = users
		p.emojis = append(p.emojis, emoji)
	}
	if users[userID] {
		delete(users, userID)
		return false, nil
	}
	users[userID] = true
	return true, nil
}

func (s *Store) Ban(userID, bannedBy int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	s.bans[userID] = community.Ban{
		ID:        s.nextID(),
		UserID:    userID,
		UserName:  strings.TrimSpace(a.FirstName + " " + a.LastName),
		UserEmail: a.Email,
		BannedBy:  bannedBy,
		Reason:    reason,
		CreatedAt: s.now().UTC(),
	}
	return nil
}

func (s *Store) Unban(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bans, userID)
}

func (s *Store) IsBanned(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bans[userID]
	return ok
}

func (s *Store) Bans() []community.Ban {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]community.Ban, 0, len(s.bans))
	for _, b := range s.bans {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b community.Ban) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

// ---------- messaging ----------

func (c *conversationRecord) other(userID int64) int64 {
	if c.userA == userID {
		return c.userB
	}
	return c.userA
}

func (c *conversationRecord) has(userID int64) bool {
	return c.userA == userID || c.userB == userID
}

// visible reports whether m was created after userID last cleared the thread.
func (c *conversationRecord) visible(m *messaging.Message, userID int64) bool {
	return m.ID > c.clearedThrough[userID]
}

// GetOrCreateConversation returns the pair's conversation, restoring it for
// userID if they had deleted it.
func (s *Store) GetOrCreateConversation(userID, otherID int64) (messaging.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[otherID]; !ok || otherID == userID {
		return messaging.Conversation{}, ErrNotFound
	}
	for _, c := range s.conversations {
		if c.has(userID) && c.has(otherID) {
			delete(c.deletedBy, userID)
			return s.conversationViewLocked(c, userID), nil
		}
	}
	c := &conversationRecord{
		id:             s.nextID(),
		userA:          userID,
		userB:          otherID,
		clearedThrough: make(map[int64]int64),
		deletedBy:      make(map[int64]bool),
	}
	s.conversations[c.id] = c
	return s.conversationViewLocked(c, userID), nil
}

func (s *Store) conversationViewLocked(c *conversationRecord, userID int64) messaging.Conversation {
	otherID := c.other(userID)
	view := messaging.Conversation{ID: c.id, OtherUserID: otherID}
	view.OtherUserName, view.OtherUserAvatar = s.authorName(otherID)

	var last *messaging.Message
	for _, m := range s.messages {
		if m.ConversationID != c.id || !c.visible(m, userID) {
			continue
		}
		if last == nil || m.ID > last.ID {
			last = m
		}
		if m.SenderID != userID && m.ReadAt == nil {
			view.UnreadCount++
		}
	}
	if last != nil {
		view.LastMessage = last.Content
		view.LastMessageAt = last.CreatedAt
	}
	return view
}

// Conversations lists the user's non-deleted conversations, most recent first.
func (s *Store) Conversations(userID int64) []messaging.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]messaging.Conversation, 0)
	for _, c := range s.conversations {
		if !c.has(userID) || c.deletedBy[userID] {
			continue
		}
		out = append(out, s.conversationViewLocked(c, userID))
	}
	slices.SortFunc(out, func(a, b messaging.Conversation) int {
		if d := b.LastMessageAt.Compare(a.LastMessageAt); d != 0 {
			return d
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (s *Store) participantLocked(convID, userID int64) (*conversationRecord, error) {
	c, ok := s.conversations[convID]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.has(userID) {
		return nil, ErrNotAllowed
	}
	return c, nil
}

// Messages pages newest first; the cursor is the last id already seen.
func (s *Store) Messages(convID, userID int64, cursor *int64, limit int) (messaging.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.participantLocked(convID, userID)
	if err != nil {
		return messaging.Thread{}, err
	}
	if limit <= 0 || limit > maxThreadLimit {
		limit = defaultThreadLimit
	}

	matches := make([]messaging.Message, 0)
	for _, m := range s.messages {
		if m.ConversationID != convID || !c.visible(m, userID) {
			continue
		}
		if cursor != nil && m.ID >= *cursor {
			continue
		}
		matches = append(matches, *m)
	}
	slices.SortFunc(matches, func(a, b messaging.Message) int { return cmp.Compare(b.ID, a.ID) })

	thread := messaging.Thread{Messages: matches}
	if len(matches) > limit {
		next := matches[limit-1].ID
		thread.NextCursor = &next
		thread.Messages = matches[:limit]
	}
	return thread, nil
}

func (s *Store) SendMessage(convID, senderID int64, content string) (messaging.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.participantLocked(convID, senderID)
	if err != nil {
		return messaging.Message{}, err
	}
	m := &messaging.Message{
		ID:             s.nextID(),
		ConversationID: convID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	s.messages[m.ID] = m

	recipient := c.other(senderID)
	// A new message brings a deleted conversation back for both sides.
	clear(c.deletedBy)
	name, _ := s.authorName(senderID)
	s.notifyLocked(recipient, "New message from "+name, content)
	return *m, nil
}

// MarkRead stamps the other side's unread messages.
func (s *Store) MarkRead(convID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.participantLocked(convID, userID); err != nil {
		return err
	}
	now := s.now().UTC()
	for _, m := range s.messages {
		if m.ConversationID == convID && m.SenderID != userID && m.ReadAt == nil {
			m.ReadAt = &now
		}
	}
	return nil
}

// ClearConversation hides current messages for userID only.
func (s *Store) ClearConversation(convID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.participantLocked(convID, userID)
	if err != nil {
		return err
	}
	c.clearedThrough[userID] = s.seq
	return nil
}

// DeleteConversation hides the conversation for userID. Once both sides
// deleted it, it is dropped with its messages.
func (s *Store) DeleteConversation(convID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.participantLocked(convID, userID)
	if err != nil {
		return err
	}
	c.clearedThrough[userID] = s.seq
	c.deletedBy[userID] = true
	if c.deletedBy[c.userA] && c.deletedBy[c.userB] {
		s.dropConversationLocked(convID)
	}
	return nil
}

func (s *Store) dropConversationLocked(convID int64) {
	delete(s.conversations, convID)
	for id, m := range s.messages {
		if m.ConversationID == convID {
			delete(s.messages, id)
		}
	}
}

// UnreadMessages counts visible unread messages across conversations.
func (s *Store) UnreadMessages(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.messages {
		c, ok := s.conversations[m.ConversationID]
		if !ok || !c.has(userID) || c.deletedBy[userID] {
			continue
		}
		if m.SenderID != userID && m.ReadAt == nil && c.visible(m, userID) {
			count++
		}
	}
	return count
}
