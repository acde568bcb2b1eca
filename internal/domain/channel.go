package domain

import "time"

// Subscription links a subscriber to a channel. Both are user ids.
type Subscription struct {
	ID         string    `json:"_id"`
	Subscriber string    `json:"subscriber"`
	Channel    string    `json:"channel"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ChannelProfile is the public view of a channel with subscription counts
// relative to the viewer.
type ChannelProfile struct {
	ID                        string    `json:"_id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int       `json:"subscribersCount"`
	ChannelsSubscribedToCount int       `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
	CreatedAt                 time.Time `json:"createdAt"`
}

// SubscriptionState reports whether the caller is subscribed after a toggle.
type SubscriptionState struct {
	ChannelID  string `json:"channelId"`
	Subscribed bool   `json:"subscribed"`
}
