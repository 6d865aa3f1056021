package api

import (
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/schedulepro/server/service/dashboard"
	"github.com/schedulepro/server/service/handoff"
	"github.com/schedulepro/server/service/practitioner"
	"github.com/schedulepro/server/service/session"
	"github.com/schedulepro/server/service/user"
)

type APIServer struct {
	address string
	db      *gorm.DB
	redis   *redis.Client
}

func NewApiServer(address string, db *gorm.DB, redisClient *redis.Client) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
		redis:   redisClient,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	userHandler := user.NewHandler(s.db)
	userHandler.RegisterRoutes(subrouter)

	practitionerHandler := practitioner.NewPractitionerHandler(s.db)
	practitionerHandler.RegisterRoutes(subrouter)

	selectionStore := handoff.NewStore(s.redis)
	handoffHandler := handoff.NewHandler(s.db, selectionStore)
	handoffHandler.RegisterRoutes(subrouter)

	sessionHandler := session.NewHandler(s.db, selectionStore)
	sessionHandler.RegisterRoutes(subrouter)

	dashboardHandler := dashboard.NewDashboardHandler(s.db)
	dashboardHandler.RegisterRoutes(subrouter)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, cors(router))
}
