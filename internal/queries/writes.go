// internal/queries/writes.go
package queries

import (
	"context"
	"io"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/domain/community"
	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/domain/profile"
	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/query"
)

func (q *Queries) ApproveUser(ctx context.Context, userID string) error {
	return query.MutateErr(ctx, q.cache, approveUserMutation(), func(ctx context.Context) error {
		return q.svc.Admin.ApproveUser(ctx, userID)
	})
}

func (q *Queries) RejectUser(ctx context.Context, userID string) error {
	return query.MutateErr(ctx, q.cache, rejectUserMutation(), func(ctx context.Context) error {
		return q.svc.Admin.RejectUser(ctx, userID)
	})
}

func (q *Queries) DeleteUser(ctx context.Context, userID string) error {
	return query.MutateErr(ctx, q.cache, deleteUserMutation(), func(ctx context.Context) error {
		return q.svc.Admin.DeleteUser(ctx, userID)
	})
}

func (q *Queries) ChangeEmail(ctx context.Context, newEmail, currentPassword string) error {
	return query.MutateErr(ctx, q.cache, changeEmailMutation(), func(ctx context.Context) error {
		return q.svc.Account.ChangeEmail(ctx, newEmail, currentPassword)
	})
}

func (q *Queries) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return query.MutateErr(ctx, q.cache, changePasswordMutation(), func(ctx context.Context) error {
		return q.svc.Account.ChangePassword(ctx, currentPassword, newPassword)
	})
}

func (q *Queries) UnlinkGoogle(ctx context.Context) error {
	return query.MutateErr(ctx, q.cache, unlinkGoogleMutation(), q.svc.Account.UnlinkGoogle)
}

func (q *Queries) UpdateAvatar(ctx context.Context, avatarURL string) error {
	return query.MutateErr(ctx, q.cache, updateAvatarMutation(), func(ctx context.Context) error {
		return q.svc.Account.UpdateAvatar(ctx, avatarURL)
	})
}

// DeleteAccount removes the account and then ends the local session.
func (q *Queries) DeleteAccount(ctx context.Context) error {
	err := query.MutateErr(ctx, q.cache, deleteAccountMutation(), q.svc.Account.DeleteAccount)
	if err != nil {
		return err
	}
	return q.session.Logout(ctx)
}

func (q *Queries) CreatePost(ctx context.Context, content string, activityID *int64) (*community.Post, error) {
	return query.Mutate(ctx, q.cache, createPostMutation(), func(ctx context.Context) (*community.Post, error) {
		return q.svc.Community.CreatePost(ctx, content, activityID)
	})
}

func (q *Queries) DeletePost(ctx context.Context, postID int64) error {
	return query.MutateErr(ctx, q.cache, deletePostMutation(postID), func(ctx context.Context) error {
		return q.svc.Community.DeletePost(ctx, postID)
	})
}

func (q *Queries) ToggleReaction(ctx context.Context, postID int64, emoji string) (bool, error) {
	return query.Mutate(ctx, q.cache, toggleReactionMutation(postID), func(ctx context.Context) (bool, error) {
		return q.svc.Community.ToggleReaction(ctx, postID, emoji)
	})
}

func (q *Queries) PinPost(ctx context.Context, postID int64, pinned bool) error {
	return query.MutateErr(ctx, q.cache, pinPostMutation(postID), func(ctx context.Context) error {
		return q.svc.Community.PinPost(ctx, postID, pinned)
	})
}

func (q *Queries) AddComment(ctx context.Context, postID int64, content string) (*community.Comment, error) {
	return query.Mutate(ctx, q.cache, addCommentMutation(postID), func(ctx context.Context) (*community.Comment, error) {
		return q.svc.Community.AddComment(ctx, postID, content)
	})
}

func (q *Queries) DeleteComment(ctx context.Context, postID, commentID int64) error {
	return query.MutateErr(ctx, q.cache, deleteCommentMutation(postID), func(ctx context.Context) error {
		return q.svc.Community.DeleteComment(ctx, commentID)
	})
}

func (q *Queries) BanUser(ctx context.Context, userID int64, reason string) error {
	return query.MutateErr(ctx, q.cache, banUserMutation(), func(ctx context.Context) error {
		return q.svc.Community.BanUser(ctx, userID, reason)
	})
}

func (q *Queries) UnbanUser(ctx context.Context, userID int64) error {
	return query.MutateErr(ctx, q.cache, unbanUserMutation(), func(ctx context.Context) error {
		return q.svc.Community.UnbanUser(ctx, userID)
	})
}

func (q *Queries) StartConversation(ctx context.Context, userID int64) (*messaging.Conversation, error) {
	return query.Mutate(ctx, q.cache, startConversationMutation(), func(ctx context.Context) (*messaging.Conversation, error) {
		return q.svc.Messaging.GetOrCreateConversation(ctx, userID)
	})
}

func (q *Queries) SendMessage(ctx context.Context, conversationID int64, content string) (*messaging.Message, error) {
	return query.Mutate(ctx, q.cache, sendMessageMutation(conversationID), func(ctx context.Context) (*messaging.Message, error) {
		return q.svc.Messaging.SendMessage(ctx, conversationID, content)
	})
}

func (q *Queries) MarkConversationRead(ctx context.Context, conversationID int64) error {
	return query.MutateErr(ctx, q.cache, markConversationReadMutation(), func(ctx context.Context) error {
		return q.svc.Messaging.MarkRead(ctx, conversationID)
	})
}

func (q *Queries) ClearConversation(ctx context.Context, conversationID int64) error {
	return query.MutateErr(ctx, q.cache, clearConversationMutation(conversationID), func(ctx context.Context) error {
		return q.svc.Messaging.ClearConversation(ctx, conversationID)
	})
}

func (q *Queries) DeleteConversation(ctx context.Context, conversationID int64) error {
	return query.MutateErr(ctx, q.cache, deleteConversationMutation(conversationID), func(ctx context.Context) error {
		return q.svc.Messaging.DeleteConversation(ctx, conversationID)
	})
}

func (q *Queries) MarkNotificationsRead(ctx context.Context) error {
	return query.MutateErr(ctx, q.cache, markNotificationsReadMutation(), q.svc.Notifications.MarkAllRead)
}

func (q *Queries) ClearNotifications(ctx context.Context) error {
	return query.MutateErr(ctx, q.cache, clearNotificationsMutation(), q.svc.Notifications.ClearAll)
}

func (q *Queries) UpdateSubscription(ctx context.Context, userID string, action subscription.Action, notes string) error {
	return query.MutateErr(ctx, q.cache, updateSubscriptionMutation(), func(ctx context.Context) error {
		return q.svc.Subscriptions.Update(ctx, userID, action, notes)
	})
}

func (q *Queries) SaveProfile(ctx context.Context, p profile.AthleteProfile) error {
	userID, err := q.currentUserID()
	if err != nil {
		return err
	}
	return query.MutateErr(ctx, q.cache, saveProfileMutation(userID), func(ctx context.Context) error {
		return q.svc.Profiles.Save(ctx, userID, p)
	})
}

func (q *Queries) UploadActivity(
	ctx context.Context,
	fileName string,
	content io.Reader,
	sport activity.SportType,
	onProgress activity.UploadProgress,
) (*activity.Activity, error) {
	return query.Mutate(ctx, q.cache, uploadActivityMutation(), func(ctx context.Context) (*activity.Activity, error) {
		return q.svc.Activities.Upload(ctx, fileName, content, sport, onProgress)
	})
}

func (q *Queries) UploadActivityFile(ctx context.Context, path string, sport activity.SportType, onProgress activity.UploadProgress) (*activity.Activity, error) {
	return query.Mutate(ctx, q.cache, uploadActivityMutation(), func(ctx context.Context) (*activity.Activity, error) {
		return q.svc.Activities.UploadFile(ctx, path, sport, onProgress)
	})
}
