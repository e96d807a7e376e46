package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/database"
	"github.com/stemsi/screening-backend/internal/logger"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/repository"
	"github.com/stemsi/screening-backend/internal/service"
)

var substances = []model.Substance{
	{Name: "Thuốc lá", Description: "Thuốc lá điếu, thuốc lào, xì gà, thuốc lá điện tử"},
	{Name: "Rượu bia", Description: "Bia, rượu, các đồ uống có cồn"},
	{Name: "Cần sa", Description: "Cỏ, hashish, các chế phẩm từ cần sa"},
	{Name: "Cocaine", Description: "Cocaine, crack"},
	{Name: "Chất kích thích dạng amphetamine", Description: "Ma túy đá, thuốc lắc, amphetamine"},
	{Name: "Thuốc hít", Description: "Keo, xăng, dung môi, bóng cười"},
	{Name: "Thuốc an thần hoặc thuốc ngủ", Description: "Diazepam, alprazolam, phenobarbital"},
	{Name: "Chất gây ảo giác", Description: "LSD, nấm ảo giác, ketamine"},
	{Name: "Chất dạng thuốc phiện", Description: "Heroin, morphine, methadone, codeine"},
}

func opt(text string, weight int) model.AnswerOptionRequest {
	return model.AnswerOptionRequest{Text: text, ScoreWeight: weight}
}

func frequency(weights ...int) []model.AnswerOptionRequest {
	labels := []string{"Không bao giờ", "Một hoặc hai lần", "Hàng tháng", "Hàng tuần", "Hằng ngày hoặc gần như hằng ngày"}
	out := make([]model.AnswerOptionRequest, len(labels))
	for i, l := range labels {
		out[i] = opt(l, weights[i])
	}
	return out
}

func lifetime(recent, earlier int) []model.AnswerOptionRequest {
	return []model.AnswerOptionRequest{
		opt("Không, chưa bao giờ", 0),
		opt("Có, trong 3 tháng qua", recent),
		opt("Có, nhưng không phải trong 3 tháng qua", earlier),
	}
}

func assistBank() model.ReplaceQuestionsRequest {
	gate := frequency(0, 2, 3, 4, 6)
	gate[0].NoUse = true

	return model.ReplaceQuestionsRequest{Questions: []model.CatalogQuestionRequest{
		{Kind: "TEMPLATE", OrderNum: 2, Text: "Trong 3 tháng qua, bạn đã sử dụng {substance} thường xuyên như thế nào?", Options: gate},
		{Kind: "TEMPLATE", OrderNum: 3, Text: "Trong 3 tháng qua, bạn có thường xuyên cảm thấy thèm muốn mãnh liệt sử dụng {substance} không?", Options: frequency(0, 3, 4, 5, 6)},
		{Kind: "TEMPLATE", OrderNum: 4, Text: "Trong 3 tháng qua, việc sử dụng {substance} có thường xuyên dẫn đến các vấn đề về sức khỏe, xã hội, pháp lý hoặc tài chính không?", Options: frequency(0, 4, 5, 6, 7)},
		{Kind: "TEMPLATE", OrderNum: 5, Text: "Trong 3 tháng qua, bạn có thường xuyên không làm được những việc được mong đợi vì sử dụng {substance} không?", Options: frequency(0, 5, 6, 7, 8)},
		{Kind: "TEMPLATE", OrderNum: 6, Text: "Đã bao giờ bạn bè, người thân hoặc ai khác bày tỏ lo lắng về việc bạn sử dụng {substance} chưa?", Options: lifetime(6, 3)},
		{Kind: "TEMPLATE", OrderNum: 7, Text: "Bạn đã bao giờ cố gắng kiểm soát, giảm bớt hoặc ngừng sử dụng {substance} nhưng không thành công chưa?", Options: lifetime(6, 3)},
		{Kind: "INJECTION", OrderNum: 8, Text: "Bạn đã bao giờ sử dụng bất kỳ chất nào bằng đường tiêm chích (không vì mục đích y tế) chưa?", Options: lifetime(2, 1)},
	}}
}

func crafftBank() model.ReplaceQuestionsRequest {
	texts := []string{
		"Bạn đã bao giờ đi trên xe do một người (kể cả bạn) đang say hoặc đã sử dụng rượu bia, ma túy điều khiển chưa?",
		"Bạn có bao giờ sử dụng rượu bia hoặc ma túy để thư giãn, cảm thấy tốt hơn về bản thân hoặc để hòa nhập không?",
		"Bạn có bao giờ sử dụng rượu bia hoặc ma túy khi ở một mình không?",
		"Bạn có bao giờ quên những việc mình đã làm trong lúc sử dụng rượu bia hoặc ma túy không?",
		"Gia đình hoặc bạn bè có bao giờ khuyên bạn nên giảm uống rượu bia hoặc sử dụng ma túy không?",
		"Bạn đã bao giờ gặp rắc rối khi đang sử dụng rượu bia hoặc ma túy chưa?",
	}
	req := model.ReplaceQuestionsRequest{Questions: make([]model.CatalogQuestionRequest, len(texts))}
	for i, t := range texts {
		req.Questions[i] = model.CatalogQuestionRequest{
			Kind:     "FIXED",
			OrderNum: i + 1,
			Text:     t,
			Options:  []model.AnswerOptionRequest{opt("Không", 0), opt("Có", 1)},
		}
	}
	return req
}

var courses = []model.Course{
	{Title: "Hiểu đúng về các chất gây nghiện", Description: "Kiến thức nền tảng giúp bạn duy trì lối sống lành mạnh.", RiskLevel: model.RiskLow},
	{Title: "Kỹ năng từ chối và quản lý áp lực bạn bè", Description: "Thực hành nói không trong các tình huống thường gặp.", RiskLevel: model.RiskMedium},
	{Title: "Nhận diện dấu hiệu sử dụng có hại", Description: "Tự đánh giá và điều chỉnh thói quen sử dụng.", RiskLevel: model.RiskMedium},
	{Title: "Đồng hành cùng chuyên gia tư vấn", Description: "Kết nối với chuyên gia để được hỗ trợ cá nhân.", RiskLevel: model.RiskHigh},
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	catalogService := service.NewCatalogService(
		repository.NewSubstanceRepository(pool),
		repository.NewCatalogRepository(pool),
		rdb, cfg.CatalogCacheTTL, log,
	)

	fmt.Println("=== Seeding substances ===")
	for _, s := range substances {
		s := s
		err := catalogService.CreateSubstance(ctx, &s)
		switch {
		case errors.Is(err, repository.ErrDuplicateSubstance):
			fmt.Printf("  %s already exists, skipped\n", s.Name)
		case err != nil:
			log.Fatal().Err(err).Str("name", s.Name).Msg("Failed to create substance")
		default:
			fmt.Printf("  %s (id=%d)\n", s.Name, s.ID)
		}
	}

	fmt.Println("=== Seeding question banks ===")
	banks := map[model.InstrumentType]model.ReplaceQuestionsRequest{
		model.InstrumentAssist: assistBank(),
		model.InstrumentCrafft: crafftBank(),
	}
	for instrument, bank := range banks {
		questions, err := catalogService.ReplaceQuestions(ctx, instrument, bank)
		if err != nil {
			log.Fatal().Err(err).Str("instrument", string(instrument)).Msg("Failed to seed question bank")
		}
		fmt.Printf("  %s: %d questions\n", instrument, len(questions))
	}

	fmt.Println("=== Seeding courses ===")
	var existing int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&existing); err != nil {
		log.Fatal().Err(err).Msg("Failed to count courses")
	}
	if existing > 0 {
		fmt.Printf("  %d courses present, skipped\n", existing)
	} else {
		for i, c := range courses {
			if _, err := pool.Exec(ctx,
				`INSERT INTO courses (title, description, risk_level, sort_order) VALUES ($1, $2, $3, $4)`,
				c.Title, c.Description, c.RiskLevel, i,
			); err != nil {
				log.Fatal().Err(err).Str("title", c.Title).Msg("Failed to create course")
			}
		}
		fmt.Printf("  %d courses created\n", len(courses))
	}

	if err := catalogService.Warm(ctx); err != nil {
		log.Warn().Err(err).Msg("Catalog cache warm failed")
	}
	fmt.Println("Done.")
}
