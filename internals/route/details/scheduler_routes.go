package details

import (
	"github.com/gofiber/fiber/v2"

	helper "lms_backend/internals/helpers"
	"lms_backend/internals/middlewares"
)

// SchedulerAdminRoutes: daftar job + jalankan job dengan fungsi yang sama dengan cron
func SchedulerAdminRoutes(r fiber.Router, d Deps) {
	if d.Scheduler == nil {
		return
	}
	jobs := r.Group("/jobs")

	jobs.Get("/", func(c *fiber.Ctx) error {
		out := make([]fiber.Map, 0)
		for _, name := range d.Scheduler.Names() {
			out = append(out, fiber.Map{"name": name, "next_run": d.Scheduler.Next(name)})
		}
		return helper.JsonList(c, "Daftar job", out)
	})

	jobs.Post("/:name/run", middlewares.SweepTriggerRateLimiter(), func(c *fiber.Ctx) error {
		res, err := d.Scheduler.RunNow(c.UserContext(), c.Params("name"))
		if err != nil {
			return helper.JsonError(c, fiber.StatusNotFound, err.Error())
		}
		return helper.JsonOK(c, "Job selesai", res)
	})
}
