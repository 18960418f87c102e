package main

import (
	"bufio"
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	healthrag "github.com/petlog/healthrag"
	"github.com/petlog/healthrag/config"
	"github.com/petlog/healthrag/core"
)

// Sample journal entries used when no seed file is given. Written the way
// owners actually describe symptoms, short and colloquial.
var entries = []string{
	"초코가 아침부터 설사를 세 번이나 했어요. 밥은 잘 먹는데 걱정돼요.",
	"산책 후에 뒷다리를 절뚝거려요. 만지면 깽깽거립니다.",
	"눈곱이 누렇게 끼고 눈을 자꾸 비벼요.",
	"어제 저녁 사료를 바꿨더니 밤새 구토를 두 번 했습니다.",
	"기침을 컥컥거리면서 해요. 거위 소리 같은 기침이에요.",
	"소변 색이 진하고 화장실을 평소보다 자주 가요.",
	"귀를 자꾸 긁고 고개를 털어요. 귀에서 냄새도 나는 것 같아요.",
	"밥을 이틀째 잘 안 먹어요. 간식만 먹으려고 해요.",
	"배가 빵빵하게 부풀어 있고 만지면 싫어해요.",
	"피부에 빨간 반점이 생기고 계속 핥아요.",
	"물을 갑자기 너무 많이 마셔요. 하루에 물그릇을 세 번 채웠어요.",
	"잇몸이 창백해 보이고 기운이 없어요.",
	"산책 중에 풀을 뜯어 먹고 나서 토했어요.",
	"발바닥 패드가 갈라져서 피가 조금 났어요.",
	"변에 점액이 섞여 나오고 냄새가 심해요.",
	"재채기를 연달아 하고 콧물이 흘러요.",
	"계단을 오르기 싫어하고 점프를 안 하려고 해요.",
	"꼬리를 자꾸 쫓으면서 엉덩이를 바닥에 끌어요.",
	"밤에 낑낑거리면서 잠을 잘 못 자요.",
	"예방접종 맞은 자리가 부어올랐어요.",
}

var (
	seedFileName = flag.String("src", "", "file of seed journal entries, one per line")
	configPath   = flag.String("config", "", "path to TOML configuration file")
	ownerID      = flag.Int64("owner", 1, "owner id stamped on seeded events")
	subjectID    = flag.Int64("subject", 1, "pet id stamped on seeded events")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// appendAll writes one CREATED event per line to the engine's event log.
func appendAll(ctx context.Context, engine *healthrag.Engine, source iter.Seq[string]) (int, error) {
	recordID := time.Now().UnixMilli()
	count := 0

	for line := range source {
		if line == "" {
			continue
		}
		event := &core.ChangeEvent{
			EventID:   uuid.NewString(),
			Type:      core.EventCreated,
			RecordID:  recordID + int64(count),
			OwnerID:   *ownerID,
			SubjectID: *subjectID,
			Text:      line,
			Timestamp: time.Now(),
		}
		if _, err := engine.AppendEvent(ctx, event); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func main() {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	engine, err := healthrag.NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(entries)
	}

	count, err := appendAll(context.Background(), engine, source)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded change events", "count", count, "owner", *ownerID, "subject", *subjectID)
}
