package topic

// defaultContext is the built-in block for the default topic. Kept static so
// the preset session works with no network access at all.
const defaultContext = `TOPIC: PlayStation 5

The PlayStation 5 (PS5) is Sony's current-generation home video game console,
released in November 2020. Key facts:

- Price: roughly $499 (disc edition) / $449 (digital edition); the PS5 Pro
  launched in late 2024 at $699.
- Hardware: custom AMD Zen 2 CPU and RDNA 2 GPU, ultra-fast NVMe SSD that
  nearly eliminates load times, support for 4K gaming and ray tracing.
- DualSense controller: haptic feedback and adaptive triggers that simulate
  physical sensations (tension of a bowstring, texture of terrain).
- Exclusive games: God of War Ragnarok, Spider-Man 2, Horizon Forbidden West,
  Demon's Souls, Returnal, Astro Bot.
- Backwards compatible with most PS4 titles; PS Plus subscription offers a
  game catalog similar to Game Pass.
- Common criticisms: large physical size, $70 first-party game pricing,
  limited SSD storage out of the box, scarcity at launch.
- Competitors: Xbox Series X (similar specs, Game Pass value story) and the
  Nintendo Switch family (portability, family titles).`
