/*
 * @module api/routes
 * @description API路由注册，挂载中间件与各业务控制器
 * @architecture MVC架构 - 路由层
 * @dependencies github.com/go-chi/chi, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers/
 */

package api

import (
	"dq-assessment-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化路由
func InitRoute(r *chi.Mux) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", controllers.Health)
	r.Get("/ready", controllers.Ready)

	r.Route("/quality", func(r chi.Router) {
		r.Post("/assess", controllers.Assess)
		r.Get("/assessments/{id}", controllers.GetAssessmentReport)
		r.Post("/rulebook/build", controllers.BuildRulebook)
		r.Post("/rulebook/load", controllers.LoadRulebook)
	})

	r.Route("/dedup", func(r chi.Router) {
		r.Post("/profile", controllers.ProfileColumns)
		r.Post("/detect", controllers.DetectDuplicates)
		r.Post("/golden", controllers.BuildGoldenRecords)
		r.Get("/strategies", controllers.ListSurvivorshipStrategies)
	})

	r.Route("/cases", func(r chi.Router) {
		r.Post("/", controllers.CreateCase)
		r.Get("/", controllers.ListCases)
		r.Get("/summary", controllers.CaseSummary)
		r.Post("/import-dq", controllers.ImportDQCases)
		r.Post("/import-duplicates", controllers.ImportDuplicateCases)
		r.Get("/{case_id}", controllers.GetCase)
		r.Put("/{case_id}/status", controllers.UpdateCaseStatus)
		r.Put("/{case_id}/assign", controllers.AssignCase)
	})
}
