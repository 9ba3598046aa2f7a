package bot

import (
	"context"
	"fmt"
	"log"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/dongurihub/uploadhub/internal/configuration"
	"github.com/dongurihub/uploadhub/internal/github"
	"github.com/dongurihub/uploadhub/internal/index"
	"github.com/dongurihub/uploadhub/internal/webutil"
)

var (
	githubURLPattern = regexp.MustCompile(`https://github\.com/([\w\-]+)/([\w\-]+)(?:/|$)`)
	fileURLPattern   = regexp.MustCompile(`(https?://[^\s/]+)/files/([0-9a-fA-F]+)`)
)

// Bot is the Discord glue: it watches chat for GitHub links and links to
// our own uploaded files, and exposes the verify/upload slash commands.
// All file knowledge comes from the same index the web surfaces use.
type Bot struct {
	Session *discordgo.Session
	Config  *configuration.Config
	Index   *index.Store
	GitHub  *github.Client
}

func New(cfg *configuration.Config, store *index.Store) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b := &Bot{Session: session, Config: cfg, Index: store, GitHub: github.NewClient()}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	return b.Session.Open()
}

func (b *Bot) Stop() error {
	return b.Session.Close()
}

var adminPermission = int64(discordgo.PermissionAdministrator)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("Logged in as %s", r.User.String())

	commands := []*discordgo.ApplicationCommand{
		{
			Name:                     "setupverify",
			Description:              "認証用メッセージを送信します",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "認証時に付与するロール",
				Required:    true,
			}},
		},
		{
			Name:        "upload",
			Description: "アップロードページのリンクを表示します",
		},
	}
	for _, cmd := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd); err != nil {
			log.Printf("Failed to register /%s: %v", cmd.Name, err)
		}
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	if match := githubURLPattern.FindStringSubmatch(m.Content); match != nil {
		b.postReadmePreview(s, m, match[1], match[2])
	}
	if match := fileURLPattern.FindStringSubmatch(m.Content); match != nil {
		b.postFileEmbed(s, m, match[1], match[2])
	}
}

// postReadmePreview replaces Discord's own GitHub embed with the first
// 500 runes of the repository README.
func (b *Bot) postReadmePreview(s *discordgo.Session, m *discordgo.MessageCreate, owner, repo string) {
	suppressEmbeds(s, m)

	readme, err := b.GitHub.FetchReadme(context.Background(), owner, repo)
	if err != nil {
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("README not found for **%s/%s**", owner, repo))
		return
	}
	preview := readme
	if runes := []rune(readme); len(runes) > 500 {
		preview = string(runes[:500]) + "..."
	}
	s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s/%s README", owner, repo),
		Description: "```\n" + preview + "\n```",
		Color:       0x1F6FEB,
	})
}

// postFileEmbed answers a shared link to one of our own files with a
// metadata embed looked up from the index.
func (b *Bot) postFileEmbed(s *discordgo.Session, m *discordgo.MessageCreate, base, token string) {
	rec, ok := b.Index.Get(token)
	if !ok {
		s.ChannelMessageSend(m.ChannelID, "共有リンクのファイル情報を見つけられませんでした: "+token)
		return
	}

	fileType := mime.TypeByExtension(strings.ToLower(filepath.Ext(rec.Filename)))
	if fileType == "" {
		fileType = "不明"
	}

	suppressEmbeds(s, m)
	s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Title:       "共有ファイル: " + rec.Filename,
		Description: fmt.Sprintf("[こちらからダウンロード](%s/files/%s)", base, token),
		Color:       0x4E73DF,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ファイルサイズ", Value: webutil.HumanSize(rec.Size), Inline: true},
			{Name: "アップロード", Value: webutil.FormatTimestamp(rec.Timestamp), Inline: true},
			{Name: "ファイルタイプ", Value: fileType, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "共有リンク詳細"},
	})
}

// suppressEmbeds hides Discord's own link preview under ours. Best
// effort: the bot may lack Manage Messages in some channels.
func suppressEmbeds(s *discordgo.Session, m *discordgo.MessageCreate) {
	edit := discordgo.NewMessageEdit(m.ChannelID, m.ID)
	edit.Flags = m.Flags | discordgo.MessageFlagsSuppressEmbeds
	if _, err := s.ChannelMessageEditComplex(edit); err != nil {
		log.Printf("could not suppress embeds on message %s: %v", m.ID, err)
	}
}
