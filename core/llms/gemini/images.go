package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

var ErrNoImages = errors.New("no images generated")

func (c *Client) GenerateImages(ctx context.Context, prompt string, count int) ([]llms.Image, error) {
	ctx, span := tracer.Start(ctx, "generate images")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", c.imageModel),
		attribute.Int("request.count", count),
	)

	resp, err := c.models.GenerateImages(ctx, c.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(max(count, 1)),
		OutputMIMEType: "image/jpeg",
	})
	if err != nil {
		err = fmt.Errorf("failed to generate images: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	images := toImages(resp)
	if len(images) == 0 {
		span.SetStatus(codes.Error, ErrNoImages.Error())
		return nil, ErrNoImages
	}

	span.SetAttributes(attribute.Int("response.count", len(images)))
	return images, nil
}

func toImages(resp *genai.GenerateImagesResponse) []llms.Image {
	if resp == nil {
		return nil
	}

	images := []llms.Image{}
	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}

		mimeType := generated.Image.MIMEType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		images = append(images, llms.Image{MIMEType: mimeType, Data: generated.Image.ImageBytes})
	}
	return images
}
