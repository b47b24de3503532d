package orbit_test

import (
	"math"
	"sort"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atlaswatch/api/pkg/orbit"
)

func atlasParams() *orbit.OrbitalParameters {
	return &orbit.OrbitalParameters{
		Eccentricity:         6.14,
		InclinationDegrees:   175.1,
		PerihelionDate:       time.Date(2025, 10, 29, 0, 0, 0, 0, time.UTC),
		PerihelionDistanceAU: 1.36,
	}
}

var _ = Describe("Estimator", func() {
	Describe("EstimatePosition", func() {
		It("should be at the perihelion distance on the perihelion date", func() {
			params := atlasParams()
			pos, err := orbit.EstimatePosition(params, params.PerihelionDate)

			Expect(err).ToNot(HaveOccurred())
			Expect(pos.Distance()).To(BeNumerically("~", 1.36, 1e-9))
			Expect(pos.Date).To(Equal("2025-10-29"))
		})

		It("should move out to about 1.38 AU one day after perihelion", func() {
			asOf, err := orbit.ParseDate("2025-10-30")
			Expect(err).ToNot(HaveOccurred())

			pos, err := orbit.EstimatePosition(atlasParams(), asOf)

			Expect(err).ToNot(HaveOccurred())
			Expect(pos.Distance()).To(BeNumerically("~", 1.38, 0.005))
			Expect(pos.Date).To(Equal("2025-10-30"))
		})

		It("should return identical output for identical input", func() {
			asOf := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

			first, err := orbit.EstimatePosition(atlasParams(), asOf)
			Expect(err).ToNot(HaveOccurred())
			second, err := orbit.EstimatePosition(atlasParams(), asOf)
			Expect(err).ToNot(HaveOccurred())

			Expect(second).To(Equal(first))
		})

		It("should place the out-of-plane component according to the inclination", func() {
			params := atlasParams()
			params.InclinationDegrees = 0

			pos, err := orbit.EstimatePosition(params, params.PerihelionDate.AddDate(0, 0, 30))

			Expect(err).ToNot(HaveOccurred())
			Expect(pos.Z).To(BeNumerically("~", 0, 1e-12))
			Expect(pos.Y).To(BeNumerically(">", 0))
		})

		It("should mirror positions before and after perihelion", func() {
			params := atlasParams()
			before, err := orbit.EstimatePosition(params, params.PerihelionDate.AddDate(0, 0, -20))
			Expect(err).ToNot(HaveOccurred())
			after, err := orbit.EstimatePosition(params, params.PerihelionDate.AddDate(0, 0, 20))
			Expect(err).ToNot(HaveOccurred())

			Expect(before.Distance()).To(BeNumerically("~", after.Distance(), 1e-9))
			Expect(before.X).To(BeNumerically("~", after.X, 1e-9))
		})

		It("should refuse a date more than a century from perihelion", func() {
			asOf, err := orbit.ParseDate("9999-01-01")
			Expect(err).ToNot(HaveOccurred())

			pos, err := orbit.EstimatePosition(atlasParams(), asOf)

			Expect(err).To(MatchError(orbit.ErrOutOfRange))
			Expect(pos).To(Equal(orbit.Position{}))
		})

		It("should accept the last day of the range", func() {
			params := atlasParams()
			asOf := params.PerihelionDate.AddDate(0, 0, orbit.MaxOffsetDays)

			pos, err := orbit.EstimatePosition(params, asOf)

			Expect(err).ToNot(HaveOccurred())
			Expect(pos.Date).To(Equal(asOf.Format(orbit.DateLayout)))
		})

		Context("with missing parameters", func() {
			It("should refuse nil parameters", func() {
				_, err := orbit.EstimatePosition(nil, time.Now())

				Expect(err).To(MatchError(orbit.ErrMissingParameters))
			})

			It("should refuse incomplete parameters instead of defaulting", func() {
				params := atlasParams()
				params.PerihelionDistanceAU = 0

				_, err := orbit.EstimatePosition(params, time.Now())

				Expect(err).To(MatchError(orbit.ErrMissingParameters))
			})

			It("should refuse a bound orbit", func() {
				params := atlasParams()
				params.Eccentricity = 0.5

				_, err := orbit.EstimatePosition(params, time.Now())

				Expect(err).To(MatchError(orbit.ErrMissingParameters))
			})

			It("should refuse a missing perihelion date", func() {
				params := atlasParams()
				params.PerihelionDate = time.Time{}

				_, err := orbit.EstimatePosition(params, time.Now())

				Expect(err).To(MatchError(orbit.ErrMissingParameters))
			})
		})
	})

	Describe("EstimateTrajectory", func() {
		It("should return 11 points for [-10, 10] every 2 days", func() {
			points, err := orbit.EstimateTrajectory(atlasParams(), orbit.Window{StartDays: -10, EndDays: 10}, 2)

			Expect(err).ToNot(HaveOccurred())
			Expect(points).To(HaveLen(11))

			offsets := make([]int, len(points))
			for i, p := range points {
				offsets[i] = p.DayOffset
			}
			Expect(offsets).To(Equal([]int{-10, -8, -6, -4, -2, 0, 2, 4, 6, 8, 10}))
			Expect(points[0].Date).To(Equal("2025-10-19"))
			Expect(points[10].Date).To(Equal("2025-11-08"))
		})

		It("should grow distance monotonically with the absolute offset", func() {
			points, err := orbit.EstimateTrajectory(atlasParams(), orbit.Window{StartDays: -10, EndDays: 10}, 2)
			Expect(err).ToNot(HaveOccurred())

			sort.SliceStable(points, func(i, j int) bool {
				return abs(points[i].DayOffset) < abs(points[j].DayOffset)
			})
			for i := 1; i < len(points); i++ {
				Expect(points[i].Distance()).To(BeNumerically(">=", points[i-1].Distance()-1e-12))
			}
			Expect(points[0].Distance()).To(BeNumerically("~", 1.36, 1e-9))
		})

		It("should agree with EstimatePosition at each offset", func() {
			params := atlasParams()
			points, err := orbit.EstimateTrajectory(params, orbit.Window{StartDays: -4, EndDays: 4}, 4)
			Expect(err).ToNot(HaveOccurred())

			for _, p := range points {
				pos, err := orbit.EstimatePosition(params, params.PerihelionDate.AddDate(0, 0, p.DayOffset))
				Expect(err).ToNot(HaveOccurred())
				Expect(pos).To(Equal(p.Position))
			}
		})

		It("should reject a non-positive step", func() {
			_, err := orbit.EstimateTrajectory(atlasParams(), orbit.Window{StartDays: -10, EndDays: 10}, 0)

			Expect(err).To(MatchError(orbit.ErrInvalidWindow))
		})

		It("should reject an inverted window", func() {
			_, err := orbit.EstimateTrajectory(atlasParams(), orbit.Window{StartDays: 10, EndDays: -10}, 1)

			Expect(err).To(MatchError(orbit.ErrInvalidWindow))
		})

		It("should date points by calendar days far from perihelion", func() {
			params := atlasParams()
			points, err := orbit.EstimateTrajectory(params, orbit.Window{StartDays: 20000, EndDays: 20000}, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(points).To(HaveLen(1))
			Expect(points[0].Date).To(Equal(params.PerihelionDate.AddDate(0, 0, 20000).Format(orbit.DateLayout)))
		})

		DescribeTable("should refuse windows beyond the estimator range",
			func(w orbit.Window, step int) {
				_, err := orbit.EstimateTrajectory(atlasParams(), w, step)

				Expect(err).To(MatchError(orbit.ErrInvalidWindow))
				Expect(err).To(MatchError(orbit.ErrOutOfRange))
			},
			Entry("huge symmetric window", orbit.Window{StartDays: -5e18, EndDays: 5e18}, int(1e18)),
			Entry("end near max int", orbit.Window{StartDays: math.MaxInt - 1, EndDays: math.MaxInt}, 2),
			Entry("start near min int", orbit.Window{StartDays: math.MinInt, EndDays: 0}, 1),
			Entry("one day past the range", orbit.Window{StartDays: 0, EndDays: orbit.MaxOffsetDays + 1}, 1),
		)

		It("should stop at the range edge with a step larger than the window", func() {
			points, err := orbit.EstimateTrajectory(atlasParams(), orbit.Window{StartDays: orbit.MaxOffsetDays - 1, EndDays: orbit.MaxOffsetDays}, math.MaxInt)

			Expect(err).ToNot(HaveOccurred())
			Expect(points).To(HaveLen(1))
			Expect(points[0].DayOffset).To(Equal(orbit.MaxOffsetDays - 1))
		})

		It("should refuse nil parameters", func() {
			_, err := orbit.EstimateTrajectory(nil, orbit.Window{StartDays: -1, EndDays: 1}, 1)

			Expect(err).To(MatchError(orbit.ErrMissingParameters))
		})
	})

	Describe("CountPoints", func() {
		It("should count both ends of the window", func() {
			n, err := orbit.CountPoints(orbit.Window{StartDays: -10, EndDays: 10}, 2)

			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(11))
		})

		It("should count the whole range at one day per point", func() {
			n, err := orbit.CountPoints(orbit.Window{StartDays: -orbit.MaxOffsetDays, EndDays: orbit.MaxOffsetDays}, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(2*orbit.MaxOffsetDays + 1))
		})
	})

	Describe("Points", func() {
		It("should yield the same points when ranged over twice", func() {
			seq, err := orbit.Points(atlasParams(), orbit.Window{StartDays: 0, EndDays: 6}, 3)
			Expect(err).ToNot(HaveOccurred())

			var first, second []orbit.TrajectoryPoint
			for p := range seq {
				first = append(first, p)
			}
			for p := range seq {
				second = append(second, p)
			}

			Expect(first).To(HaveLen(3))
			Expect(second).To(Equal(first))
		})

		It("should stop early when the consumer breaks", func() {
			seq, err := orbit.Points(atlasParams(), orbit.Window{StartDays: 0, EndDays: 100}, 1)
			Expect(err).ToNot(HaveOccurred())

			n := 0
			for range seq {
				n++
				if n == 5 {
					break
				}
			}
			Expect(n).To(Equal(5))
		})
	})
})

func abs(n int) int {
	return int(math.Abs(float64(n)))
}
