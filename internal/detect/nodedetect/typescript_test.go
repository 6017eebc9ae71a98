package nodedetect

import "testing"

func TestTypeScriptAdoption(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		wantTitle string
		wantConf  int
	}{
		{
			name:      "pure typescript",
			files:     []string{"src/a.ts", "src/b.tsx", "src/c.ts"},
			wantTitle: "TypeScript codebase",
			wantConf:  95,
		},
		{
			name:      "mixed",
			files:     []string{"src/a.ts", "src/b.ts", "src/c.js", "src/d.js"},
			wantTitle: "Mixed TypeScript/JavaScript",
			wantConf:  80,
		},
		{
			name:      "mostly javascript",
			files:     []string{"src/a.ts", "src/b.js", "src/c.js", "src/d.js"},
			wantTitle: "JavaScript with some TypeScript",
			wantConf:  75,
		},
		{
			name:      "pure javascript",
			files:     []string{"src/a.js", "src/b.js", "src/c.mjs"},
			wantTitle: "JavaScript codebase",
			wantConf:  90,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newCtx()
			for _, f := range tt.files {
				ctx.Repo.Add(nodeFile(f))
			}
			res := mustDetect(t, NewTypeScript(), ctx)
			if res.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", res.Title, tt.wantTitle)
			}
			if res.Confidence != tt.wantConf {
				t.Errorf("confidence = %d, want %d", res.Confidence, tt.wantConf)
			}
		})
	}
}

func TestTypeScriptRequiresMinimumSample(t *testing.T) {
	ctx := newCtx(nodeFile("src/a.ts"), nodeFile("src/b.ts"))
	mustSkip(t, NewTypeScript(), ctx)
}
