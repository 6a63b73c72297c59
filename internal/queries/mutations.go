// internal/queries/mutations.go
package queries

import "trackpro-client/internal/query"

func approveUserMutation() query.Mutation {
	return query.Mutation{Name: "admin.approve-user", Invalidates: []query.Key{AdminUsersKey(), AdminActionsKey()}}
}

func rejectUserMutation() query.Mutation {
	return query.Mutation{Name: "admin.reject-user", Invalidates: []query.Key{AdminUsersKey(), AdminActionsKey()}}
}

func deleteUserMutation() query.Mutation {
	return query.Mutation{Name: "admin.delete-user", Invalidates: []query.Key{AdminUsersKey(), AdminSubscriptionsKey(), AdminActionsKey()}}
}

func changeEmailMutation() query.Mutation {
	return query.Mutation{Name: "account.change-email", Invalidates: []query.Key{MeKey()}}
}

func changePasswordMutation() query.Mutation {
	return query.Mutation{Name: "account.change-password", Invalidates: []query.Key{MeKey()}}
}

func unlinkGoogleMutation() query.Mutation {
	return query.Mutation{Name: "account.unlink-google", Invalidates: []query.Key{MeKey()}}
}

func updateAvatarMutation() query.Mutation {
	return query.Mutation{Name: "account.update-avatar", Invalidates: []query.Key{MeKey(), ProfileKey("")}}
}

func deleteAccountMutation() query.Mutation {
	return query.Mutation{Name: "account.delete", Invalidates: []query.Key{MeKey()}}
}

func createPostMutation() query.Mutation {
	return query.Mutation{Name: "community.create-post", Invalidates: []query.Key{CommunityPostsKey()}}
}

func postMutation(name string, postID int64) query.Mutation {
	return query.Mutation{Name: name, Invalidates: []query.Key{CommunityPostsKey(), CommunityPostKey(postID)}}
}

func deletePostMutation(postID int64) query.Mutation {
	return postMutation("community.delete-post", postID)
}

func toggleReactionMutation(postID int64) query.Mutation {
	return postMutation("community.toggle-reaction", postID)
}

func pinPostMutation(postID int64) query.Mutation {
	return postMutation("community.pin-post", postID)
}

func addCommentMutation(postID int64) query.Mutation {
	return postMutation("community.add-comment", postID)
}

func deleteCommentMutation(postID int64) query.Mutation {
	return postMutation("community.delete-comment", postID)
}

func banUserMutation() query.Mutation {
	return query.Mutation{Name: "community.ban-user", Invalidates: []query.Key{AdminBansKey()}}
}

func unbanUserMutation() query.Mutation {
	return query.Mutation{Name: "community.unban-user", Invalidates: []query.Key{AdminBansKey()}}
}

func startConversationMutation() query.Mutation {
	return query.Mutation{Name: "messages.start-conversation", Invalidates: []query.Key{ConversationsKey()}}
}

func sendMessageMutation(conversationID int64) query.Mutation {
	return query.Mutation{Name: "messages.send", Invalidates: []query.Key{ThreadKey(conversationID), ConversationsKey()}}
}

func markConversationReadMutation() query.Mutation {
	return query.Mutation{Name: "messages.mark-read", Invalidates: []query.Key{ConversationsKey(), MessageUnreadKey()}}
}

func clearConversationMutation(conversationID int64) query.Mutation {
	return query.Mutation{Name: "messages.clear", Invalidates: []query.Key{ThreadKey(conversationID), ConversationsKey(), MessageUnreadKey()}}
}

func deleteConversationMutation(conversationID int64) query.Mutation {
	return query.Mutation{Name: "messages.delete", Invalidates: []query.Key{ThreadKey(conversationID), ConversationsKey(), MessageUnreadKey()}}
}

func markNotificationsReadMutation() query.Mutation {
	return query.Mutation{Name: "notifications.mark-read", Invalidates: []query.Key{NotificationsKey(), NotificationUnreadKey()}}
}

func clearNotificationsMutation() query.Mutation {
	return query.Mutation{Name: "notifications.clear", Invalidates: []query.Key{NotificationsKey(), NotificationUnreadKey()}}
}

func updateSubscriptionMutation() query.Mutation {
	return query.Mutation{Name: "admin.update-subscription", Invalidates: []query.Key{AdminSubscriptionsKey(), MySubscriptionKey()}}
}

func saveProfileMutation(userID string) query.Mutation {
	return query.Mutation{Name: "profile.save", Invalidates: []query.Key{ProfileKey(userID)}}
}

func uploadActivityMutation() query.Mutation {
	return query.Mutation{Name: "activities.upload", Invalidates: []query.Key{ActivitiesKey()}}
}

// MutationCatalog lists every write with its invalidation keys. Per-entity
// mutations use a sample id.
func MutationCatalog() []query.Mutation {
	const sampleID = 1
	return []query.Mutation{
		approveUserMutation(),
		rejectUserMutation(),
		deleteUserMutation(),
		changeEmailMutation(),
		changePasswordMutation(),
		unlinkGoogleMutation(),
		updateAvatarMutation(),
		deleteAccountMutation(),
		createPostMutation(),
		deletePostMutation(sampleID),
		toggleReactionMutation(sampleID),
		pinPostMutation(sampleID),
		addCommentMutation(sampleID),
		deleteCommentMutation(sampleID),
		banUserMutation(),
		unbanUserMutation(),
		startConversationMutation(),
		sendMessageMutation(sampleID),
		markConversationReadMutation(),
		clearConversationMutation(sampleID),
		deleteConversationMutation(sampleID),
		markNotificationsReadMutation(),
		clearNotificationsMutation(),
		updateSubscriptionMutation(),
		saveProfileMutation("1"),
		uploadActivityMutation(),
	}
}

// ReadCatalog lists the keys reads are cached under, with sample ids.
func ReadCatalog() []query.Key {
	return []query.Key{
		ActivitiesKey(),
		ActivityKey("1"),
		AdminUsersKey(),
		AdminStatsKey(),
		AdminActionsKey(),
		AdminSubscriptionsKey(),
		AdminBansKey(),
		communityFeedKey(""),
		CommunityPostKey(1),
		ConversationsKey(),
		ThreadKey(1),
		MessageUnreadKey(),
		ApprovedUsersKey(),
		NotificationsKey(),
		NotificationUnreadKey(),
		MySubscriptionKey(),
		ProfileKey("1"),
		MeKey(),
	}
}
