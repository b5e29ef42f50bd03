package handler

import (
	"catalog-service/app/domain"
	"catalog-service/app/handler/api/response"
	"catalog-service/app/repository/broker"

	"github.com/gofiber/fiber/v2"
)

// BrokerStatus reports the broker connection state.
type BrokerStatus interface {
	State() broker.State
}

type HealthHandler struct {
	service string
	broker  BrokerStatus
}

func NewHealthHandler(service string, status BrokerStatus) *HealthHandler {
	return &HealthHandler{
		service: service,
		broker:  status,
	}
}

type healthStatus struct {
	Service string `json:"service"`
	Broker  string `json:"broker"`
}

// Ready is true only while the broker channel is usable.
func (h *HealthHandler) Ready(*fiber.Ctx) bool {
	return h.broker.State() == broker.StateConnected
}

func (h *HealthHandler) Status(c *fiber.Ctx) error {
	status := healthStatus{Service: h.service, Broker: h.broker.State().String()}
	if !h.Ready(c) {
		code, _ := response.FromError(domain.ErrBrokerUnavailable)
		return c.Status(code).JSON(&response.Response{Success: false, Data: status, Error: domain.ErrBrokerUnavailable.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(response.Success(status))
}
