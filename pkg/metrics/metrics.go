package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuslink", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuslink", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	UsersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "campuslink", Name: "users_registered_total", Help: "Number of accounts created."},
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuslink", Name: "login_attempts_total", Help: "Number of login attempts by outcome."},
		[]string{"outcome"},
	)
	PostsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "campuslink", Name: "posts_created_total", Help: "Number of forum posts created."},
	)
	LikesToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuslink", Name: "likes_toggled_total", Help: "Number of like toggles by direction."},
		[]string{"direction"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(UsersRegistered)
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(PostsCreated)
	reg.MustRegister(LikesToggled)
}
