package handlers

import (
	"net/http"
	"os"

	"github.com/abhay-jindal/shopkart/internal/auth"
	"github.com/abhay-jindal/shopkart/internal/cache"
	"github.com/abhay-jindal/shopkart/internal/orders"
	"github.com/abhay-jindal/shopkart/internal/razorpay"
	"github.com/abhay-jindal/shopkart/internal/stores/kafka"
	"github.com/abhay-jindal/shopkart/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	consulapi "github.com/hashicorp/consul/api"
)

type Handler struct {
	client        *consulapi.Client
	o             *orders.Conf
	orch          *orders.Orchestrator
	gateway       *razorpay.Client
	k             *kafka.Conf
	cache         *cache.LocalCache
	validate      *validator.Validate
	webhookSecret string
}

func NewHandler(client *consulapi.Client, o *orders.Conf, orch *orders.Orchestrator,
	gateway *razorpay.Client, k *kafka.Conf, c *cache.LocalCache, webhookSecret string) *Handler {
	return &Handler{
		client:        client,
		o:             o,
		orch:          orch,
		gateway:       gateway,
		k:             k,
		cache:         c,
		validate:      validator.New(),
		webhookSecret: webhookSecret,
	}
}

func API(endpointPrefix string, keys *auth.Keys, client *consulapi.Client, o *orders.Conf,
	orch *orders.Orchestrator, gateway *razorpay.Client, kafkaConf *kafka.Conf,
	c *cache.LocalCache, webhookSecret string) *gin.Engine {

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	m, err := middleware.NewMid(keys)
	if err != nil {
		panic(err)
	}

	h := NewHandler(client, o, orch, gateway, kafkaConf, c, webhookSecret)
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", HealthCheck)

	v1 := r.Group(endpointPrefix)
	{
		// The gateway calls the webhook directly; it authenticates with its
		// own signature, not a user token.
		v1.POST("/webhook", h.Webhook)

		v1.Use(m.Authentication())
		v1.POST("/checkout", m.Authorize(h.Checkout, auth.RoleUser))
		v1.GET("", m.Authorize(h.ListOrders, auth.RoleUser))
		v1.GET("/:id/invoice", m.Authorize(h.DownloadInvoice, auth.RoleUser))
	}

	pay := r.Group("/payment")
	{
		pay.Use(m.Authentication())
		pay.POST("/order", m.Authorize(h.CreatePaymentOrder, auth.RoleUser))
	}

	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}
